// Package advisor delegates the four project analyses to a hosted
// chat-completion model speaking the OpenAI-compatible wire contract.
// Every failure path collapses into ErrUnavailable so callers can fall
// back to the rule-based scorers without inspecting the cause.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/compasshq/compass/internal/config"
)

// ErrUnavailable signals that the hosted model could not produce a usable
// result. It covers transport errors, non-2xx responses, and unparsable
// completions alike.
var ErrUnavailable = errors.New("advisor: unavailable")

// HTTPError carries a non-2xx upstream response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("advisor: upstream status %d: %s", e.StatusCode, e.Body)
}

// Client calls a chat-completion endpoint for project analysis.
type Client struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	timeout   time.Duration

	httpClient *http.Client
}

// New builds a Client from advisor config. It does not validate the
// credential; a bad key surfaces as ErrUnavailable on first use.
func New(cfg config.AdvisorConfig) *Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		timeout:    cfg.Timeout(),
		httpClient: &http.Client{Transport: tr},
	}
}

// NewWithHTTPClient is intended for tests; it swaps the transport so no
// network access happens.
func NewWithHTTPClient(cfg config.AdvisorConfig, httpClient *http.Client) *Client {
	c := New(cfg)
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chat sends one system+user exchange and returns the completion text.
func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0.2,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return "", fmt.Errorf("advisor: encode request: %w", err)
	}

	ctx2 := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx2, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx2, http.MethodPost, c.baseURL+"/chat/completions", &buf)
	if err != nil {
		return "", fmt.Errorf("advisor: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("advisor: call upstream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("advisor: decode response: %w", err)
	}
	for _, choice := range out.Choices {
		if strings.TrimSpace(choice.Message.Content) != "" {
			return choice.Message.Content, nil
		}
	}
	return "", errors.New("advisor: empty completion")
}

// unavailable folds any failure into the ErrUnavailable sentinel.
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
