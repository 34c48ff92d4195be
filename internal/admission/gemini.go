package admission

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
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds one Admit call including retries.
	Timeout time.Duration
}

// GeminiClient asks a Gemini model whether a name is a real product and how it is sold.
type GeminiClient struct {
	log     *slog.Logger
	http    *http.Client
	cfg     GeminiConfig
	tracer  trace.Tracer
	retries uint
}

func NewGeminiClient(log *slog.Logger, cfg GeminiConfig) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &GeminiClient{
		log:     log,
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		cfg:     cfg,
		tracer:  otel.Tracer("admission-gate"),
		retries: 3,
	}
}

func (c *GeminiClient) Admit(ctx context.Context, name string) Verdict {
	ctx, span := c.tracer.Start(ctx, "AdmitProduct", trace.WithAttributes(attribute.String("product.name", name)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if c.cfg.APIKey == "" {
		span.SetStatus(codes.Error, "api key missing")
		return Unavailable("admission api key not configured")
	}

	text, err := c.generate(ctx, prompt(name))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gate unavailable")
		c.log.Warn("admission gate unavailable", "name", name, "err", err)
		return Unavailable(err.Error())
	}

	v := ParseAnswer(text)
	span.SetAttributes(attribute.String("admission.outcome", v.Outcome.String()))
	if v.Outcome == OutcomeUnavailable {
		c.log.Warn("admission gate answer malformed", "name", name, "reason", v.Reason)
	}
	return v
}

func prompt(name string) string {
	return fmt.Sprintf("1. Is %q a commonly recognized product? Answer only \"Yes\" or \"No\".\n"+
		"2. If it is a real product, is it sold by weight (kg) or by unit (piece)? Answer only \"kg\" or \"unit\".", name)
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gemini returned status %d: %s", e.code, e.body)
}

func (c *GeminiClient) generate(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: text}}}},
		GenerationConfig: &generationConfig{Temperature: 0, MaxOutputTokens: 16},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = time.Second

	return backoff.Retry(ctx, func() (string, error) {
		return c.call(ctx, url, body)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.retries))
}

// call performs one request. Throttling and server errors are retryable; everything else
// is returned as permanent.
func (c *GeminiClient) call(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	// Never in the URL: transport errors quote it.
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(err)
		}
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		serr := &statusError{code: resp.StatusCode, body: truncate(string(raw), 200)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", serr
		}
		return "", backoff.Permanent(serr)
	}

	var gr geminiResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", backoff.Permanent(fmt.Errorf("parse response: %w", err))
	}
	if len(gr.Candidates) == 0 {
		return "", backoff.Permanent(errors.New("no candidates in gemini response"))
	}
	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", backoff.Permanent(errors.New("no text content in gemini response"))
	}
	return sb.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
