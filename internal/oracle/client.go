package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/nao1215/newscrawler/internal/model"
)

// Default client settings.
const (
	// DefaultBaseURL is DashScope's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "qwen-plus-latest"

	// DefaultTimeout bounds a single oracle request.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxPageChars caps the page text sent in one request.
	DefaultMaxPageChars = 60000

	// temperature keeps judgments close to deterministic.
	temperature = 0.1

	// promptHeadroom is added to the page cap for raw prompts, which carry
	// the instruction in the same message.
	promptHeadroom = 4096
)

// ContentOracle is the request/response contract of the oracle.
type ContentOracle interface {
	// DiscoverURLs returns the article links found in a homepage.
	DiscoverURLs(ctx context.Context, page string) ([]string, error)

	// ExtractContent returns the loosely typed judgment of an article page.
	ExtractContent(ctx context.Context, page string, lang model.Language) (map[string]any, error)

	// Complete sends a single raw prompt and returns the model's text.
	Complete(ctx context.Context, prompt string) (string, error)
}

var _ ContentOracle = (*Client)(nil)

// Client is a ContentOracle backed by an OpenAI-compatible chat completions
// API, called through go-openai.
type Client struct {
	api          *openai.Client
	httpClient   *http.Client
	timeout      time.Duration
	baseURL      string
	apiKey       string
	model        string
	maxPageChars int
	logger       *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client. The client is copied, so the
// timeout option never changes a shared client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL sets the API base URL (without the /chat/completions suffix).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithModel sets the model identifier.
func WithModel(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.model = name
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxPageChars caps the page text sent per request. Zero disables the cap.
func WithMaxPageChars(n int) ClientOption {
	return func(c *Client) {
		c.maxPageChars = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client. It returns ErrMissingAPIKey when apiKey is empty.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		httpClient:   &http.Client{},
		timeout:      DefaultTimeout,
		baseURL:      DefaultBaseURL,
		apiKey:       apiKey,
		model:        DefaultModel,
		maxPageChars: DefaultMaxPageChars,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	hc := *c.httpClient
	hc.Timeout = c.timeout
	c.httpClient = &hc

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = c.baseURL
	cfg.HTTPClient = c.httpClient
	c.api = openai.NewClientWithConfig(cfg)

	return c, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// urlList is the expected shape of a discovery answer.
type urlList struct {
	URLs []string `json:"urls"`
}

// DiscoverURLs asks the model for the article links on a homepage.
// Links are returned as the model wrote them; callers normalize them.
func (c *Client) DiscoverURLs(ctx context.Context, page string) ([]string, error) {
	content, err := c.chat(ctx, []message{
		{Role: openai.ChatMessageRoleSystem, Content: DiscoveryPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: truncate(page, c.maxPageChars)},
	}, true)
	if err != nil {
		return nil, &ExtractionError{Op: "discover", Err: err}
	}

	var list urlList
	if err := json.Unmarshal([]byte(content), &list); err != nil {
		return nil, &ExtractionError{Op: "discover", Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if list.URLs == nil {
		return nil, &ExtractionError{Op: "discover", Err: fmt.Errorf("%w: missing urls field", ErrMalformedResponse)}
	}

	c.logger.Debug("discovered urls", "count", len(list.URLs))
	return list.URLs, nil
}

// ExtractContent asks the model to judge an article page and returns the
// decoded JSON object without validation.
func (c *Client) ExtractContent(ctx context.Context, page string, lang model.Language) (map[string]any, error) {
	content, err := c.chat(ctx, []message{
		{Role: openai.ChatMessageRoleSystem, Content: ExtractionPrompt(lang)},
		{Role: openai.ChatMessageRoleUser, Content: truncate(page, c.maxPageChars)},
	}, true)
	if err != nil {
		return nil, &ExtractionError{Op: "extract", Err: err}
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, &ExtractionError{Op: "extract", Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if fields == nil {
		return nil, &ExtractionError{Op: "extract", Err: fmt.Errorf("%w: not a JSON object", ErrMalformedResponse)}
	}

	return fields, nil
}

// Complete sends prompt as a single user message and returns the raw text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	content, err := c.chat(ctx, []message{
		{Role: openai.ChatMessageRoleUser, Content: truncate(prompt, c.rawPromptLimit())},
	}, false)
	if err != nil {
		return "", &ExtractionError{Op: "complete", Err: err}
	}
	return content, nil
}

// rawPromptLimit is the rune cap for Complete.
func (c *Client) rawPromptLimit() int {
	if c.maxPageChars <= 0 {
		return 0
	}
	return c.maxPageChars + promptHeadroom
}

// message is one chat message.
type message = openai.ChatCompletionMessage

// chat performs one chat completions call and returns the first choice's content.
func (c *Client) chat(ctx context.Context, messages []message, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	c.logger.Debug("oracle call finished",
		"model", c.model,
		"duration", time.Since(start).Round(time.Millisecond),
		"ok", err == nil,
	)
	if err != nil {
		return "", apiError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// apiError maps go-openai errors onto the package sentinels.
func apiError(err error) error {
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		synErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return fmt.Errorf("%w: HTTP %d: %s", ErrAPIStatus, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return fmt.Errorf("%w: HTTP %d", ErrAPIStatus, apiErr.HTTPStatusCode)
	case errors.As(err, &reqErr):
		return fmt.Errorf("%w: HTTP %d", ErrAPIStatus, reqErr.HTTPStatusCode)
	case errors.As(err, &synErr):
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	default:
		return fmt.Errorf("send request: %w", err)
	}
}
