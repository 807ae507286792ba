// Package huggingface is a client for the Hugging Face Inference API covering
// feature extraction, summarization, text-to-speech, text-to-image and text
// classification.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api-inference.huggingface.co/models"

// maxErrorBody bounds how much of a failed response is kept in an APIError.
const maxErrorBody = 4 << 10

// APIError is returned for any non-2xx response.
type APIError struct {
	Model      string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("huggingface: model %s returned %d: %s", e.Model, e.StatusCode, e.Message)
}

// ErrEmptyResult is returned when a model answers 2xx with nothing usable.
var ErrEmptyResult = errors.New("huggingface: empty result")

type Models struct {
	Embedding      string
	Summarization  string
	Speech         string
	Image          string
	Classification string
}

type Client struct {
	token      string
	baseURL    *url.URL
	models     Models
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outbound requests per second. Zero disables the limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithTimeout sets the per-request deadline on a copy of the current HTTP
// client, leaving the caller's client untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

func NewClient(token, baseURL string, models Models, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("huggingface: invalid base url: %w", err)
	}

	c := &Client{
		token:      token,
		baseURL:    u,
		models:     models,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type request struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    requestOptions `json:"options"`
}

type requestOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// post sends one inference request and returns the raw body and its content type.
func (c *Client) post(ctx context.Context, model, accept string, in request) ([]byte, string, error) {
	if model == "" {
		return nil, "", errors.New("huggingface: model is required")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "", err
		}
	}

	in.Options.WaitForModel = true
	bs, err := json.Marshal(in)
	if err != nil {
		return nil, "", err
	}

	endpoint := c.baseURL.JoinPath(model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(bs))
	if err != nil {
		return nil, "", err
	}

	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, "", &APIError{Model: model, StatusCode: res.StatusCode, Message: errorMessage(body, res.Status)}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", err
	}
	return body, res.Header.Get("Content-Type"), nil
}

func errorMessage(body []byte, status string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return status
}
