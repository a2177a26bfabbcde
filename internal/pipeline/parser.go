package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/feichai0017/docstream/internal/llm"
	"github.com/feichai0017/docstream/pkg/logger"
)

// ParseResult holds the structured fields extracted from one page image.
// Description is always non-empty on success; Text and Summary may be
// empty for pages with no extractable content.
type ParseResult struct {
	Text            string
	Summary         string
	Description     string
	RequestNextPage bool // reserved for future multi-page context
}

// parserResponse mirrors the JSON shape requested from the model. Pointer
// fields distinguish "absent/null" from "empty string" during validation.
type parserResponse struct {
	Text            *string `json:"text"`
	Summary         *string `json:"summary"`
	Description     *string `json:"description"`
	RequestNextPage *bool   `json:"requestNextPage"`
}

type parseState int

const (
	stateAttempting parseState = iota
	stateValidating
	stateSucceeded
	stateFailedTerminal
)

// PageParser drives a page image through the model adapter until it yields
// a valid structured response or the retry budget is exhausted. Attempts
// are strictly sequential; the only failure context surfaced to the model
// is the self-correction prompt carrying the prior response and error.
type PageParser struct {
	client         llm.Client
	logger         logger.Logger
	maxRetries     int
	attemptTimeout time.Duration
	jpegQuality    int
}

type PageParserConfig struct {
	MaxRetries     int           // additional attempts after the first; default 3
	AttemptTimeout time.Duration // per model call; default 2 minutes
}

func NewPageParser(client llm.Client, log logger.Logger, cfg *PageParserConfig) *PageParser {
	p := &PageParser{
		client:         client,
		logger:         log,
		maxRetries:     3,
		attemptTimeout: 2 * time.Minute,
		jpegQuality:    90,
	}
	if cfg != nil {
		if cfg.MaxRetries > 0 {
			p.maxRetries = cfg.MaxRetries
		}
		if cfg.AttemptTimeout > 0 {
			p.attemptTimeout = cfg.AttemptTimeout
		}
	}
	return p
}

// Parse extracts structured content from the page image at imagePath. The
// returned error is terminal for the page: retries are already spent.
func (p *PageParser) Parse(ctx context.Context, imagePath string) (*ParseResult, error) {
	imageData, err := p.normalizeImage(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare page image: %w", err)
	}

	var (
		state       = stateAttempting
		prompt      = defaultParsePrompt
		raw         string
		result      *ParseResult
		lastErr     error
		errorsSoFar int
	)

	for {
		switch state {
		case stateAttempting:
			attemptCtx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
			raw, lastErr = p.client.Invoke(attemptCtx, llm.Request{
				System: pageParserSystemPrompt,
				Prompt: prompt,
				Images: [][]byte{imageData},
				Format: llm.FormatJSON,
			})
			cancel()
			state = stateValidating

		case stateValidating:
			if lastErr == nil {
				result, lastErr = validateParserResponse(raw)
			}
			if lastErr == nil {
				state = stateSucceeded
				break
			}
			// Transport failures, timeouts, malformed JSON and schema
			// violations are all retried the same way.
			errorsSoFar++
			p.logger.Warn("Page parse attempt failed",
				logger.String("image", imagePath),
				logger.Int("attempt", errorsSoFar),
				logger.Error(lastErr),
			)
			if errorsSoFar > p.maxRetries {
				state = stateFailedTerminal
				break
			}
			prompt = correctionPrompt(raw, lastErr)
			state = stateAttempting

		case stateSucceeded:
			return result, nil

		case stateFailedTerminal:
			return nil, fmt.Errorf("page parsing failed after %d attempts: %v (last response: %s)",
				errorsSoFar, lastErr, truncate(raw, 500))
		}
	}
}

// validateParserResponse checks the raw model output against the expected
// schema. Invalid JSON and schema violations are distinct failure modes
// but are handled identically by the retry loop.
func validateParserResponse(raw string) (*ParseResult, error) {
	cleaned := stripCodeFence(raw)
	if strings.TrimSpace(cleaned) == "" {
		return nil, fmt.Errorf("empty response")
	}

	var resp parserResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if resp.Description == nil {
		return nil, fmt.Errorf("schema validation failed: missing required field \"description\"")
	}

	result := &ParseResult{Description: *resp.Description}
	if resp.Text != nil {
		result.Text = *resp.Text
	}
	if resp.Summary != nil {
		result.Summary = *resp.Summary
	}
	if resp.RequestNextPage != nil {
		result.RequestNextPage = *resp.RequestNextPage
	}
	return result, nil
}

// normalizeImage loads the page image and re-encodes it as an opaque RGB
// JPEG, flattening any alpha channel onto white so the model adapter gets
// a compatible color mode.
func (p *PageParser) normalizeImage(imagePath string) ([]byte, error) {
	img, err := imaging.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	bounds := img.Bounds()
	flattened := image.NewNRGBA(bounds)
	draw.Draw(flattened, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flattened, bounds, img, bounds.Min, draw.Over)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, flattened, &jpeg.Options{Quality: p.jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
