package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"

	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/prompt"
)

// Config holds OpenAI-compatible endpoint parameters.
type Config struct {
	APIKey            string
	Model             string
	BaseURL           string
	Temperature       float64
	RefineTemperature float64
	MaxTokens         int
	MaxRetries        int
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// Client implements Generator against a chat completions API with image input.
type Client struct {
	api               openai.Client
	model             string
	temperature       float64
	refineTemperature float64
	maxTokens         int
}

// NewClient constructs a Client if the supplied configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.8
	}
	if cfg.RefineTemperature <= 0 {
		cfg.RefineTemperature = 0.3
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1200
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithBaseURL(cfg.BaseURL + "/"),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		api:               openai.NewClient(opts...),
		model:             cfg.Model,
		temperature:       cfg.Temperature,
		refineTemperature: cfg.RefineTemperature,
		maxTokens:         cfg.MaxTokens,
	}, nil
}

// Enabled reports whether the client can make outbound calls.
func (c *Client) Enabled() bool {
	return c != nil && c.model != ""
}

// Model is the chat model this client targets.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Generate asks for a handful of candidates describing the image.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) ([]candidate.Raw, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(prompt.Generation(req.Brief)),
	}
	if req.Image != nil && len(req.Image.Data) > 0 {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL:    req.Image.DataURL(),
			Detail: "auto",
		}))
	}
	model := c.model
	if override := strings.TrimSpace(req.ModelOverride); override != "" {
		model = override
	}

	content, err := c.complete(ctx, model, c.temperature, openai.UserMessage(parts))
	if err != nil {
		return nil, err
	}
	raws, err := candidate.ParseRaw(content)
	if err != nil {
		return nil, fmt.Errorf("parse ai response: %w", err)
	}
	return raws, nil
}

// Regenerate asks for a minimal edit of target at a lower temperature.
func (c *Client) Regenerate(ctx context.Context, instructions string, target candidate.Candidate) (candidate.Raw, error) {
	if !c.Enabled() {
		return candidate.Raw{}, ErrDisabled
	}
	text, err := prompt.Refinement(instructions, target)
	if err != nil {
		return candidate.Raw{}, err
	}
	content, err := c.complete(ctx, c.model, c.refineTemperature, openai.UserMessage(text))
	if err != nil {
		return candidate.Raw{}, err
	}
	raws, err := candidate.ParseRaw(content)
	if err != nil {
		return candidate.Raw{}, fmt.Errorf("parse ai response: %w", err)
	}
	return raws[0], nil
}

func (c *Client) complete(ctx context.Context, model string, temperature float64, user openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			user,
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai empty response: %w", candidate.ErrMalformed)
	}
	logrus.WithFields(logrus.Fields{
		"model":             resp.Model,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	}).Debug("chat completion")
	return resp.Choices[0].Message.Content, nil
}

// StatusCode extracts the upstream HTTP status from an API error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsModelError reports whether the upstream rejected the model itself (400/404).
func IsModelError(err error) bool {
	switch StatusCode(err) {
	case http.StatusBadRequest, http.StatusNotFound:
		return true
	default:
		return false
	}
}
