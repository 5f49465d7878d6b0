package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"econ-curator/internal/domain"
)

// systemInstruction is the fixed instruction for model-mode generation.
const systemInstruction = "You are a data curator. Given a structural summary of a cleaned " +
	"economic dataset, write concise markdown documentation with these sections: " +
	"Overview, Data summary, Applied transformations, Source. Describe coverage, " +
	"quality, and provenance. Do not invent values that are not in the summary."

// TextGenerator produces the document body for a prompt. Implemented by
// ModelClient; substituted in tests.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelClient calls an OpenAI-compatible chat-completions endpoint.
type ModelClient struct {
	endpoint string
	model    string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

// NewModelClient creates a client for the given chat-completions base URL
// (e.g. "https://api.openai.com/v1" or a local llama server).
func NewModelClient(endpoint, model, apiKey string, timeout time.Duration, logger *slog.Logger) *ModelClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &ModelClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate implements TextGenerator. Transient failures are retried with
// backoff; exhaustion and malformed responses surface as
// DocumentationBackendError for the caller's template fallback.
func (c *ModelClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", domain.ErrDocumentationBackend("marshal chat request: %v", err)
	}

	var body []byte
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.endpoint+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return domain.ErrDocumentationBackend("build chat request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(domain.ErrDocumentationBackend("model call: %v", err))
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return retry.RetryableError(domain.ErrDocumentationBackend("model call: status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return domain.ErrDocumentationBackend("model call: status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(domain.ErrDocumentationBackend("read model response: %v", err))
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", domain.ErrDocumentationBackend("malformed model response: %v", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", domain.ErrDocumentationBackend("model response carries no content")
	}
	return parsed.Choices[0].Message.Content, nil
}

// buildPrompt renders the summary as the user message for model mode. The
// documenter never sees the full dataset — only the summary.
func buildPrompt(topic string, source domain.Source, summary domain.DataSummary) string {
	data, _ := json.MarshalIndent(summary, "", "  ") //nolint:errcheck // struct of strings and ints
	return fmt.Sprintf("Topic: %s\nSource: %s\nDataset summary:\n%s", topic, source, data)
}

var _ TextGenerator = (*ModelClient)(nil)
