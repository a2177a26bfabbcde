package handlers

import (
	"github.com/feichai0017/docstream/internal/notify"
	"github.com/feichai0017/docstream/internal/service/document"
	"github.com/feichai0017/docstream/pkg/logger"
)

type Handlers struct {
	Document *DocumentHandler
	Events   *EventsHandler
}

func NewHandlers(
	documentService document.Service,
	hub *notify.Hub,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Document: NewDocumentHandler(documentService, logger),
		Events:   NewEventsHandler(hub, logger),
	}
}
