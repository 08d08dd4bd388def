// campusvoice/ai/ai.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campusvoice/config"
	"campusvoice/models"
	"campusvoice/utils"

	"github.com/ollama/ollama/api"
	"golang.org/x/time/rate"
)

// Client talks to an Ollama-compatible generate endpoint.
type Client struct {
	client      *api.Client
	model       string
	timeout     time.Duration
	pollTimeout time.Duration
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// bearerTransport adds an API key to every upstream request.
type bearerTransport struct {
	key  string
	base http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+t.key)
	return t.base.RoundTrip(r)
}

// New creates a Client from configuration. Callers should check
// cfg.Enabled() first and fall back to Disabled.
func New(cfg config.AIConfig, logger *slog.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	httpClient := &http.Client{}
	if cfg.APIKey != "" {
		httpClient.Transport = &bearerTransport{key: cfg.APIKey, base: http.DefaultTransport}
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	return &Client{
		client:      api.NewClient(baseURL, httpClient),
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		pollTimeout: cfg.PollTimeout,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger.With("component", "ai", "model", cfg.Model),
	}, nil
}

// Suggest asks the model for short, actionable fixes to a reported issue.
func (c *Client) Suggest(ctx context.Context, title, description, category string) (string, error) {
	if category == "" {
		category = config.DefaultCategory
	}
	prompt := fmt.Sprintf(`You are a helpful AI assistant for a university campus issue reporting platform called "Campus Voice".
A student or staff member has submitted the following issue in the "%s" category:

### Issue Title
%s

### Issue Description
%s

Please provide 2-3 specific, actionable, and constructive suggestions or solutions for this issue.
Your response will be shown to users. Format your response clearly using markdown. Keep it concise, helpful, and empathetic. Do not include introductory/outro fluff - just dive straight into the solutions.`,
		category, title, description)

	text, err := c.generate(ctx, c.timeout, prompt, 0.7)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty suggestion: %w", models.ErrUpstream)
	}
	return text, nil
}

// PollQuestion asks the model for one yes/no question about an issue.
func (c *Client) PollQuestion(ctx context.Context, title, description string) (string, error) {
	prompt := fmt.Sprintf(`Based on the following issue reported on a university campus:
Title: %s
Description: %s

Generate ONE simple "Yes/No" poll question to ask the community. Only return the question itself without any quotes or extra text.`,
		title, description)

	text, err := c.generate(ctx, c.pollTimeout, prompt, 0.3)
	if err != nil {
		return "", err
	}
	q := CleanPollQuestion(text)
	if q == "" {
		return "", fmt.Errorf("empty poll question: %w", models.ErrUpstream)
	}
	return q, nil
}

func (c *Client) generate(ctx context.Context, timeout time.Duration, prompt string, temperature float64) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("ai throttle: %v: %w", err, models.ErrUpstream)
	}

	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: new(bool), // false
		Options: map[string]any{
			"temperature": temperature,
		},
	}

	start := time.Now()
	var full strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		full.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		c.logger.Warn("Generate failed", "error", err, "duration", time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("ai request timed out: %w", models.ErrUpstream)
		}
		return "", fmt.Errorf("ai request failed: %v: %w", err, models.ErrUpstream)
	}
	c.logger.Debug("Generate finished", "duration", time.Since(start), "chars", full.Len())
	return full.String(), nil
}

// CleanPollQuestion keeps the first non-empty line of model output, strips
// markup and wrapping quotes, and caps the length.
func CleanPollQuestion(raw string) string {
	line := ""
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	line = utils.CleanText(line)
	line = strings.TrimSpace(strings.Trim(line, "\"'“”‘’`"))
	return utils.TruncateRunes(line, config.MaxPollLen)
}

// ErrDisabled is returned by every Disabled call.
var ErrDisabled error = &models.ConfigError{What: "AI assistant"}

// Disabled stands in when no model is configured.
type Disabled struct{}

func (Disabled) Suggest(context.Context, string, string, string) (string, error) {
	return "", ErrDisabled
}

func (Disabled) PollQuestion(context.Context, string, string) (string, error) {
	return "", ErrDisabled
}

// FromConfig returns a live Client when cfg is enabled and Disabled otherwise.
func FromConfig(cfg config.AIConfig, logger *slog.Logger) (models.Assistant, error) {
	if !cfg.Enabled() {
		logger.Info("AI assistant disabled")
		return Disabled{}, nil
	}
	c, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("AI assistant enabled", "base_url", cfg.BaseURL, "model", cfg.Model)
	return c, nil
}
