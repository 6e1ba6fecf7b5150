package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bz888/localchat/internal/logger"
	"github.com/pkg/errors"
)

// InferenceClientInterface is what the chat handler needs from the inference server.
type InferenceClientInterface interface {
	Complete(ctx context.Context, req *CompletionRequest) ([]byte, error)
	GetModels(ctx context.Context) ([]Model, error)
	Ping(ctx context.Context) error
}

// Client represents a client for an OpenAI-compatible inference server
type Client struct {
	base      *url.URL
	http      *http.Client
	modelsUrl *url.URL
	chatUrl   *url.URL
}

// ClientConfig holds the configuration for the client
type ClientConfig struct {
	BaseURL    string
	ModelsPath string
	ChatPath   string
	// Timeout of zero means requests wait as long as the server takes.
	Timeout time.Duration
}

// NewClient creates a new API client with configurable base URL and endpoints
func NewClient(config ClientConfig) (*Client, error) {
	baseURL, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid inference base url %q", config.BaseURL)
	}

	return &Client{
		base:      baseURL,
		http:      &http.Client{Timeout: config.Timeout},
		modelsUrl: baseURL.JoinPath(config.ModelsPath),
		chatUrl:   baseURL.JoinPath(config.ChatPath),
	}, nil
}

func (c *Client) GetModelsURL() string {
	return c.modelsUrl.String()
}

func (c *Client) GetChatURL() string {
	return c.chatUrl.String()
}

// Complete posts a non-streaming chat completion and returns the raw body.
// The status code is not inspected: whatever the server sent is handed back for
// the caller to interpret. Only transport and read failures are errors.
func (c *Client) Complete(ctx context.Context, data *CompletionRequest) ([]byte, error) {
	localLogger := logger.NewLogger("inference chat")

	bts, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode completion request")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.GetChatURL(), bytes.NewReader(bts))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build completion request")
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.http.Do(request)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reach inference server at %s", c.GetChatURL())
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		localLogger.Warn("Inference server answered", response.Status)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read completion response")
	}
	return body, nil
}

// GetModels fetches the models the inference server has loaded
func (c *Client) GetModels(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.GetModelsURL(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build models request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch models")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("failed to fetch models: " + resp.Status)
	}

	var response ModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, errors.Wrap(err, "failed to decode models response")
	}
	return response.Data, nil
}

// Ping reports whether anything answers HTTP at the models endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.GetModelsURL(), nil)
	if err != nil {
		return errors.Wrap(err, "failed to build ping request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "inference server not available")
	}
	resp.Body.Close()
	return nil
}
