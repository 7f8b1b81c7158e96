package ledapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"led-gateway/internal/domain/model"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxErrorBody = 512

type Health struct {
	Status    string `json:"status"`
	Actuator  string `json:"actuator"`
	Connected bool   `json:"connected"`
}

// Client talks to the device API, usually through the gateway. baseURL
// includes any routing prefix, e.g. "http://gw:8787/newapi".
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ledapi: parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("ledapi: base url %q must be an absolute http(s) url", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) ListLEDs(ctx context.Context) ([]model.LED, error) {
	var leds []model.LED
	if err := c.do(ctx, "list leds", http.MethodGet, "/leds/", nil, &leds); err != nil {
		return nil, err
	}
	if err := validateAll("list leds", leds); err != nil {
		return nil, err
	}
	return leds, nil
}

func (c *Client) GetLED(ctx context.Context, id int) (model.LED, error) {
	return c.one(ctx, fmt.Sprintf("get led %d", id), http.MethodGet, ledPath(id), nil)
}

func (c *Client) SetState(ctx context.Context, id int, state model.State) (model.LED, error) {
	return c.one(ctx, fmt.Sprintf("set led %d", id), http.MethodPut, ledPath(id), model.StateUpdate{State: state})
}

func (c *Client) TurnOn(ctx context.Context, id int) (model.LED, error) {
	return c.one(ctx, fmt.Sprintf("turn on led %d", id), http.MethodPost, ledPath(id)+"/on", nil)
}

func (c *Client) TurnOff(ctx context.Context, id int) (model.LED, error) {
	return c.one(ctx, fmt.Sprintf("turn off led %d", id), http.MethodPost, ledPath(id)+"/off", nil)
}

func (c *Client) SetAll(ctx context.Context, state model.State) ([]model.LED, error) {
	var leds []model.LED
	if err := c.do(ctx, "set all leds", http.MethodPut, "/leds/", model.StateUpdate{State: state}, &leds); err != nil {
		return nil, err
	}
	if err := validateAll("set all leds", leds); err != nil {
		return nil, err
	}
	return leds, nil
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, "health", http.MethodGet, "/health", nil, &h)
	return h, err
}

func (c *Client) one(ctx context.Context, op, method, path string, body any) (model.LED, error) {
	var led model.LED
	if err := c.do(ctx, op, method, path, body, &led); err != nil {
		return model.LED{}, err
	}
	if err := led.Validate(); err != nil {
		return model.LED{}, &DecodeError{Op: op, Err: err}
	}
	return led, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	target := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ledapi: %s: encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return &TransportError{Op: op, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Device API request", "op", op, "method", method, "url", target)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, URL: target, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("Failed to close response body", "op", op, "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

func ledPath(id int) string {
	return fmt.Sprintf("/leds/%d", id)
}

func validateAll(op string, leds []model.LED) error {
	if leds == nil {
		return &DecodeError{Op: op, Err: errors.New("expected a json array of leds")}
	}
	for _, led := range leds {
		if err := led.Validate(); err != nil {
			return &DecodeError{Op: op, Err: err}
		}
	}
	return nil
}
