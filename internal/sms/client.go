// Package sms sends text messages through the SMS gateway's HTTP API.
package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"brokerdesk/pkg/platform/sentinel"
)

const defaultTimeout = 5 * time.Second

// ErrInvalidPhone is returned for numbers that cannot be put in E.164 form.
var ErrInvalidPhone = errors.New("invalid phone number")

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, phone, text string) error
}

type Config struct {
	BaseURL string
	APIKey  string
	Sender  string
	Timeout time.Duration
}

// Client posts messages to {BaseURL}/messages.
type Client struct {
	cfg    Config
	http   *fasthttp.Client
	logger *slog.Logger
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient replaces the fasthttp client, e.g. to dial an in-memory
// listener.
func WithHTTPClient(hc *fasthttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg: cfg,
		http: &fasthttp.Client{
			Name:                "brokerdesk-sms",
			MaxIdleConnDuration: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendRequest struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) Send(ctx context.Context, phone, text string) error {
	to, err := NormalizePhone(phone)
	if err != nil {
		return err
	}
	body, err := json.Marshal(sendRequest{To: to, From: c.cfg.Sender, Text: text})
	if err != nil {
		return fmt.Errorf("encode sms request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(strings.TrimRight(c.cfg.BaseURL, "/") + "/messages")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.cfg.APIKey)
	}
	req.SetBody(body)

	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return fmt.Errorf("sms gateway: %w: %w", sentinel.ErrUnavailable, err)
	}

	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		if c.logger != nil {
			c.logger.InfoContext(ctx, "sms sent", "to", maskPhone(to))
		}
		return nil
	}
	var e errorResponse
	_ = json.Unmarshal(resp.Body(), &e)
	if status >= 500 {
		return fmt.Errorf("sms gateway status %d: %s: %w", status, e.Error, sentinel.ErrUnavailable)
	}
	return fmt.Errorf("sms gateway rejected message: status %d: %s", status, e.Error)
}

// NormalizePhone renders a Belgian or international number in E.164 form.
// Local numbers starting with 0 are taken as Belgian.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '.' || r == '/' || r == '-' || r == '(' || r == ')':
		default:
			return "", ErrInvalidPhone
		}
	}
	n := b.String()
	switch {
	case strings.HasPrefix(n, "+"):
	case strings.HasPrefix(n, "00"):
		n = "+" + n[2:]
	case strings.HasPrefix(n, "0"):
		n = "+32" + n[1:]
	default:
		return "", ErrInvalidPhone
	}
	if digits := len(n) - 1; digits < 8 || digits > 15 {
		return "", ErrInvalidPhone
	}
	return n, nil
}

func maskPhone(p string) string {
	if len(p) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(p)-4) + p[len(p)-4:]
}
