package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaClientInvoke(t *testing.T) {
	var captured ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: `{"description": "ok"}`},
			Done:    true,
		})
	}))
	defer server.Close()

	client := NewOllamaClient(&OllamaConfig{Endpoint: server.URL, Model: "llava"})
	defer client.Close()

	content, err := client.Invoke(context.Background(), Request{
		System: "system instruction",
		Prompt: "describe the page",
		Images: [][]byte{{0xFF, 0xD8}},
		Format: FormatJSON,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"description": "ok"}`, content)

	assert.Equal(t, "llava", captured.Model)
	assert.Equal(t, "json", captured.Format)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	require.Len(t, captured.Messages[1].Images, 1)
	assert.Equal(t, "/9g=", captured.Messages[1].Images[0]) // base64 of 0xFF 0xD8
}

func TestOllamaClientInvokeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewOllamaClient(&OllamaConfig{Endpoint: server.URL, Model: "missing"})
	defer client.Close()

	_, err := client.Invoke(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOllamaClientInvokeModelError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaChatResponse{Error: "out of memory"})
	}))
	defer server.Close()

	client := NewOllamaClient(&OllamaConfig{Endpoint: server.URL, Model: "llava"})
	defer client.Close()

	_, err := client.Invoke(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of memory")
}

func TestOllamaClientInvokeStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		enc := json.NewEncoder(w)
		enc.Encode(ollamaChatResponse{Message: ollamaMessage{Content: "Hello"}})
		enc.Encode(ollamaChatResponse{Message: ollamaMessage{Content: " world"}})
		enc.Encode(ollamaChatResponse{Done: true})
	}))
	defer server.Close()

	client := NewOllamaClient(&OllamaConfig{Endpoint: server.URL, Model: "llava"})
	defer client.Close()

	chunks, err := client.InvokeStream(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)

	var full string
	for chunk := range chunks {
		full += chunk
	}
	assert.Equal(t, "Hello world", full)
}
