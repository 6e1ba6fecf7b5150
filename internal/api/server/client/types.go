package client

import (
	"encoding/json"

	"github.com/bz888/localchat/internal/chat"
)

type CompletionRequest struct {
	Model    string         `json:"model"`
	Messages []chat.Message `json:"messages"`
	Stream   bool           `json:"stream"`
}

type CompletionResponse struct {
	ID      string             `json:"id,omitempty"`
	Object  string             `json:"object,omitempty"`
	Created int64              `json:"created,omitempty"`
	Model   string             `json:"model,omitempty"`
	Choices []CompletionChoice `json:"choices"`
	Usage   *Usage             `json:"usage,omitempty"`
}

type CompletionChoice struct {
	Index        int               `json:"index"`
	Message      CompletionMessage `json:"message"`
	FinishReason *string           `json:"finish_reason,omitempty"`
}

type CompletionMessage struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content"` // nil when the server omitted it
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ModelsResponse struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// FirstContent returns choices[0].message.content, if the server sent one.
func (r *CompletionResponse) FirstContent() (string, bool) {
	if len(r.Choices) == 0 || r.Choices[0].Message.Content == nil {
		return "", false
	}
	return *r.Choices[0].Message.Content, true
}

// ParseCompletion decodes a raw completion body. ok is false when the body is
// not JSON at all; JSON of an unexpected shape yields an empty response.
func ParseCompletion(body []byte) (resp CompletionResponse, ok bool) {
	if !json.Valid(body) {
		return CompletionResponse{}, false
	}
	// shape mismatches are tolerated: the caller only looks at choices[0]
	_ = json.Unmarshal(body, &resp)
	return resp, true
}
