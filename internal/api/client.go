package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/bz888/localchat/internal/chat"
	"github.com/bz888/localchat/internal/logger"
	"github.com/pkg/errors"
)

// Client talks to the chat server's /api routes.
type Client struct {
	base        *url.URL
	http        *http.Client
	localLogger *logger.Logger
}

func NewClient(serverURL string) (*Client, error) {
	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid server url %q", serverURL)
	}
	return &Client{
		base:        base,
		http:        &http.Client{},
		localLogger: logger.NewLogger("api client"),
	}, nil
}

// Chat posts the whole history to /api/chat and returns the reply as a fresh
// assistant turn carrying the first text part of the server's answer.
func (c *Client) Chat(ctx context.Context, turns []chat.Turn) (chat.Turn, error) {
	requestData, err := json.Marshal(chat.ChatRequest{Messages: turns})
	if err != nil {
		return chat.Turn{}, errors.Wrap(err, "failed to serialize request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath("/api/chat").String(), bytes.NewReader(requestData))
	if err != nil {
		return chat.Turn{}, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	c.localLogger.Info("Sending turns:", len(turns))

	resp, err := c.http.Do(req)
	if err != nil {
		return chat.Turn{}, errors.Wrap(err, "failed to send request")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.localLogger.Error("Failed to close response body:", err)
		}
	}()

	var reply chat.Turn
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return chat.Turn{}, errors.Wrap(err, "failed to decode response")
	}
	if len(reply.Parts) == 0 {
		return chat.Turn{}, errors.New("response has no parts")
	}

	return chat.NewAssistantTurn(reply.Parts[0].Text), nil
}

func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.JoinPath("/api/models").String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create get models request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform models request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("failed to get models: " + resp.Status)
	}

	var models []string
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, errors.Wrap(err, "failed to decode models response")
	}
	return models, nil
}
