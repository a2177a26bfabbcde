package embedding

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder computes a fixed-length vector for a piece of text. Empty or
// whitespace-only input always yields (nil, nil) — "no embedding" is a
// valid result, not an error.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// LangchainEmbedder adapts a langchaingo embedder to the Embedder interface.
type LangchainEmbedder struct {
	impl *embeddings.EmbedderImpl
}

// NewOllamaEmbedder builds an embedder backed by a local Ollama model,
// e.g. nomic-embed-text.
func NewOllamaEmbedder(serverURL, model string) (*LangchainEmbedder, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	return &LangchainEmbedder{impl: impl}, nil
}

// NewOpenAIEmbedder builds an embedder backed by an OpenAI-compatible API.
func NewOpenAIEmbedder(baseURL, token, model string) (*LangchainEmbedder, error) {
	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(strings.TrimPrefix(token, "Bearer ")),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	return &LangchainEmbedder{impl: impl}, nil
}

func (e *LangchainEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return e.impl.EmbedQuery(ctx, text)
}

// Null is an Embedder that never produces vectors. Used when no embedding
// backend is configured.
type Null struct{}

func (Null) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, nil
}
