package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"calora/backend/internal/config"
)

var (
	ErrNotConfigured = errors.New("OPENAI_API_KEY is not configured")
	ErrEmptyAnswer   = errors.New("openai response answer is empty")
)

// StatusError is returned for any non-2xx response from the Responses API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openai responses error (%d): %s", e.StatusCode, e.Body)
}

type Request struct {
	Model           string
	Instructions    string
	Input           string
	MaxOutputTokens int
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type Response struct {
	Text  string
	Model string
	Usage Usage
}

type Client interface {
	// Available reports whether a credential is present. Callers must not
	// call Complete when it returns false.
	Available() bool
	Complete(ctx context.Context, req Request) (Response, error)
}

type OpenAIResponsesClient struct {
	apiKey          string
	baseURL         string
	model           string
	maxOutputTokens int
	httpClient      *http.Client
}

func NewOpenAIResponsesClient(cfg config.Config) *OpenAIResponsesClient {
	return &OpenAIResponsesClient{
		apiKey:          strings.TrimSpace(cfg.OpenAIAPIKey),
		baseURL:         strings.TrimRight(strings.TrimSpace(cfg.OpenAIBaseURL), "/"),
		model:           strings.TrimSpace(cfg.OpenAIModel),
		maxOutputTokens: cfg.AIMaxOutputTokens,
		httpClient: &http.Client{
			Timeout: cfg.AITimeout(),
		},
	}
}

func (c *OpenAIResponsesClient) Available() bool {
	return c != nil && c.apiKey != ""
}

func (c *OpenAIResponsesClient) Complete(ctx context.Context, req Request) (Response, error) {
	if !c.Available() {
		return Response{}, ErrNotConfigured
	}
	if c.baseURL == "" {
		return Response{}, errors.New("OPENAI_BASE_URL is not configured")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	if model == "" {
		return Response{}, errors.New("OPENAI_MODEL is not configured")
	}
	input := strings.TrimSpace(req.Input)
	if input == "" {
		return Response{}, errors.New("AI request input is empty")
	}
	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = c.maxOutputTokens
	}

	payload := map[string]any{
		"model":             model,
		"input":             input,
		"max_output_tokens": maxTokens,
	}
	if instructions := strings.TrimSpace(req.Instructions); instructions != "" {
		payload["instructions"] = instructions
	}

	statusCode, body, err := c.post(ctx, payload)
	if err == nil && isTransientStatus(statusCode) {
		statusCode, body, err = c.post(ctx, payload)
	}
	if err != nil {
		return Response{}, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return Response{}, &StatusError{StatusCode: statusCode, Body: truncateForLog(string(body), 500)}
	}

	parsed := parseJSONObject(body)
	text := extractResponseText(parsed)
	if text == "" && isMaxOutputTokenIncomplete(parsed) {
		// Retry once with a doubled budget.
		payload["max_output_tokens"] = maxTokens * 2
		statusCode, body, err = c.post(ctx, payload)
		if err != nil {
			return Response{}, err
		}
		if statusCode < 200 || statusCode >= 300 {
			return Response{}, &StatusError{StatusCode: statusCode, Body: truncateForLog(string(body), 500)}
		}
		parsed = parseJSONObject(body)
		text = extractResponseText(parsed)
	}
	if text == "" {
		log.Printf("openai response had no extractable text: %s", truncateForLog(string(body), 1200))
		return Response{}, ErrEmptyAnswer
	}

	usageMap, _ := parsed["usage"].(map[string]any)
	modelName := strings.TrimSpace(toString(parsed["model"]))
	if modelName == "" {
		modelName = model
	}
	return Response{
		Text:  text,
		Model: modelName,
		Usage: Usage{
			InputTokens:  int(extractNumber(usageMap, "input_tokens", "prompt_tokens")),
			OutputTokens: int(extractNumber(usageMap, "output_tokens", "completion_tokens")),
			TotalTokens:  int(extractNumber(usageMap, "total_tokens")),
		},
	}, nil
}

func (c *OpenAIResponsesClient) post(ctx context.Context, payload map[string]any) (int, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(raw))
	if err != nil {
		return 0, nil, err
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return 0, nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return 0, nil, err
	}
	return response.StatusCode, body, nil
}

func isTransientStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// MockClient answers every request with a canned JSON insight.
type MockClient struct {
	Text string
}

func (m MockClient) Available() bool { return true }

func (m MockClient) Complete(_ context.Context, req Request) (Response, error) {
	text := strings.TrimSpace(m.Text)
	if text == "" {
		text = `{"title":"Steady week","message":"Mock insight for local development.","bullets":["Log meals consistently.","Keep moving daily."]}`
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = "mock"
	}
	return Response{Text: text, Model: model, Usage: Usage{InputTokens: 120, OutputTokens: 60, TotalTokens: 180}}, nil
}
