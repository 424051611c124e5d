package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"production-assistant/backend/internal/config"
)

// FailureKind classifies a failed completion call so the dispatcher can pick
// the right canned reply for the chat surface.
type FailureKind int

const (
	FailureUnconfigured FailureKind = iota
	FailureAuth
	FailureRateLimited
	FailureOther
)

type GatewayError struct {
	Kind FailureKind
	Err  error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("assistant gateway: %v", e.Err)
	}
	return "assistant gateway failure"
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Canned replies for each failure kind. The chat surface always gets some
// text back; gateway failures are never surfaced as HTTP errors.
const (
	replyNotConfigured = "OpenAI API key not configured. Please set OPENAI_API_KEY environment variable."
	replyAuthFailed    = "Authentication failed. Please check your OpenAI API key."
	replyRateLimited   = "Rate limit exceeded. Please try again later."
	replyFailure       = "Sorry, I encountered an error processing your request."
)

type AssistantService interface {
	// Complete sends one message to the completion endpoint and returns the
	// reply text or a *GatewayError. A single attempt, no retries.
	Complete(ctx context.Context, message string) (string, error)

	// SafeReply wraps Complete and downgrades every failure to a short
	// human-readable string.
	SafeReply(ctx context.Context, message string) string
}

type OpenAIAssistant struct {
	cfg    config.OpenAIConfig
	client *http.Client
	logger *slog.Logger
}

func NewOpenAIAssistant(cfg config.OpenAIConfig, logger *slog.Logger) *OpenAIAssistant {
	return &OpenAIAssistant{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (a *OpenAIAssistant) Complete(ctx context.Context, message string) (string, error) {
	if a.cfg.APIKey == "" {
		return "", &GatewayError{Kind: FailureUnconfigured, Err: errors.New("no API key configured")}
	}

	reqBody := chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: a.cfg.SystemPrompt},
			{Role: "user", Content: message},
		},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &GatewayError{Kind: FailureOther, Err: err}
	}

	url := strings.TrimSuffix(a.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &GatewayError{Kind: FailureOther, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		// Timeouts and transport failures all land here.
		return "", &GatewayError{Kind: FailureOther, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GatewayError{Kind: FailureOther, Err: err}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil && resp.StatusCode == http.StatusOK {
		return "", &GatewayError{Kind: FailureOther, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &GatewayError{Kind: FailureAuth, Err: apiErrOrStatus(parsed.Error, resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &GatewayError{Kind: FailureRateLimited, Err: apiErrOrStatus(parsed.Error, resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return "", &GatewayError{Kind: FailureOther, Err: apiErrOrStatus(parsed.Error, resp.StatusCode)}
	}

	if len(parsed.Choices) == 0 {
		return "", &GatewayError{Kind: FailureOther, Err: errors.New("response contained no choices")}
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func (a *OpenAIAssistant) SafeReply(ctx context.Context, message string) string {
	reply, err := a.Complete(ctx, message)
	if err == nil {
		return reply
	}

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		a.logger.Error("assistant call failed", "error", err)
		return replyFailure
	}

	switch gwErr.Kind {
	case FailureUnconfigured:
		return replyNotConfigured
	case FailureAuth:
		a.logger.Error("OpenAI authentication failed", "error", gwErr.Err)
		return replyAuthFailed
	case FailureRateLimited:
		a.logger.Error("OpenAI rate limit exceeded", "error", gwErr.Err)
		return replyRateLimited
	default:
		a.logger.Error("OpenAI request failed", "error", gwErr.Err)
		return replyFailure
	}
}

func apiErrOrStatus(apiErr *apiError, status int) error {
	if apiErr != nil && apiErr.Message != "" {
		return errors.New(apiErr.Message)
	}
	return fmt.Errorf("unexpected status %d", status)
}
