// Package gemini wraps the Gemini API for character analysis and illustration.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/your-org/charstudio/internal/config"
	"github.com/your-org/charstudio/internal/observability"
)

// ErrEmptyResponse is returned when the model produced no usable candidate.
var ErrEmptyResponse = errors.New("empty model response")

// ContentGenerator is the subset of *genai.Models used here.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewClient builds the process-wide Gemini client. It returns nil, nil when no API
// key is configured so callers can treat the backend as absent.
func NewClient(ctx context.Context, cfg config.GenAIConfig) (*genai.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

// caller is shared by Analyzer and Illustrator: one model, one operation label.
type caller struct {
	gen       ContentGenerator
	model     string
	operation string
	timeout   time.Duration
}

func (c caller) generate(ctx context.Context, parts []*genai.Part, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.gen.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	elapsed := time.Since(start)
	observability.GenAIRequestDuration.WithLabelValues(c.operation).Observe(elapsed.Seconds())

	if err != nil {
		c.fail()
		return nil, fmt.Errorf("%s: generate content: %w", c.operation, err)
	}
	slog.Debug("genai call finished", "operation", c.operation, "model", c.model, "duration", elapsed.String())
	return resp, nil
}

func (c caller) fail() {
	observability.GenAIFailures.WithLabelValues(c.operation).Inc()
}

// firstCandidate returns the first candidate or explains why there is none.
func firstCandidate(resp *genai.GenerateContentResponse) (*genai.Candidate, error) {
	if resp == nil {
		return nil, ErrEmptyResponse
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyResponse, resp.PromptFeedback.BlockReason)
		}
		return nil, ErrEmptyResponse
	}
	return resp.Candidates[0], nil
}

// candidateText concatenates the non-thought text parts of the first candidate.
func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	cand, err := firstCandidate(resp)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		if cand.FinishReason != "" && cand.FinishReason != genai.FinishReasonStop {
			return "", fmt.Errorf("%w: finish reason %s", ErrEmptyResponse, cand.FinishReason)
		}
		return "", ErrEmptyResponse
	}
	return text, nil
}
