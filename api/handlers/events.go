package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/docstream/internal/notify"
	"github.com/feichai0017/docstream/pkg/logger"
)

// EventsHandler streams document status updates to browsers over SSE.
type EventsHandler struct {
	hub    *notify.Hub
	logger logger.Logger
}

func NewEventsHandler(hub *notify.Hub, logger logger.Logger) *EventsHandler {
	return &EventsHandler{
		hub:    hub,
		logger: logger,
	}
}

// Stream subscribes the client to status updates until it disconnects.
func (h *EventsHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Message: "Event streaming is not enabled"})
		return
	}

	events, cancel := h.hub.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(event.Action, event)
			return true
		case <-clientGone:
			return false
		}
	})
}
