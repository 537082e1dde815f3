package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dbask/dbask/core"
)

const (
	DefaultModel   = "gpt-4"
	DefaultTimeout = 60 * time.Second

	completionsPath = "/v1/chat/completions"
	// responses larger than this are cut off in StatusError.Body
	maxErrorBody = 2048
)

var (
	errNoBaseURL = errors.New("base URL is required")
	errNoAPIKey  = errors.New("api key is required")
	errNoChoice  = errors.New("completion has no choices")
)

// StatusError is a non 2xx reply of the completion endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: completion endpoint replied %d: %s", core.ErrGenerationService, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return core.ErrGenerationService }

var _ Generator = (*OpenAI)(nil)

type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	// HTTPClient replaces the default client, Timeout is then ignored.
	HTTPClient *http.Client
}

// OpenAI is a Generator backed by an OpenAI compatible chat completions endpoint.
type OpenAI struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errNoBaseURL
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errNoAPIKey
	}

	o := &OpenAI{
		endpoint:    baseURL + completionsPath,
		apiKey:      apiKey,
		model:       strings.TrimSpace(cfg.Model),
		temperature: cfg.Temperature,
		client:      cfg.HTTPClient,
	}
	if o.model == "" {
		o.model = DefaultModel
	}
	if o.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		o.client = &http.Client{Timeout: timeout}
	}

	return o, nil
}

// Generate makes one completion call. Every error matches core.ErrGenerationService.
func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	reply, err := o.complete(ctx, buildPayload(o.model, o.temperature, req))
	if err != nil {
		return "", err
	}
	return reply.text()
}

func (o *OpenAI) complete(ctx context.Context, payload chatPayload) (*chatReply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: json.Marshal: %w", core.ErrGenerationService, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: http.NewRequest: %w", core.ErrGenerationService, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrGenerationService, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading reply: %w", core.ErrGenerationService, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	reply := new(chatReply)
	if err := json.Unmarshal(raw, reply); err != nil {
		return nil, fmt.Errorf("%w: decoding reply: %w", core.ErrGenerationService, err)
	}
	return reply, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatPayload struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatReply struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// text is the content of the first choice.
func (r *chatReply) text() (string, error) {
	if len(r.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", core.ErrGenerationService, errNoChoice)
	}
	return r.Choices[0].Message.Content, nil
}

// buildPayload puts the info after the prompt in the user message.
func buildPayload(model string, temperature float64, req Request) chatPayload {
	user := strings.TrimSpace(req.Prompt)
	if info := strings.TrimSpace(req.Info); info != "" {
		user += "\n\nReference information:\n" + info
	}

	var messages []chatMessage
	if system := strings.TrimSpace(req.SystemPrompt); system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	return chatPayload{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	}
}
