package llm

import (
	"context"
)

// ResponseFormat selects the shape the model is asked to reply in.
type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json"
)

// Request is a single model invocation: an instruction prompt plus zero or
// more images.
type Request struct {
	System string
	Prompt string
	Images [][]byte
	Format ResponseFormat
}

// Client is a vision-capable model adapter. Implementations may fail with
// transient errors or return malformed content; callers own retry policy.
type Client interface {
	Invoke(ctx context.Context, req Request) (string, error)
	// InvokeStream yields response chunks as they arrive. The channel is
	// closed when the response is complete or the context is cancelled.
	InvokeStream(ctx context.Context, req Request) (<-chan string, error)
}
