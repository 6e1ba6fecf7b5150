package chat

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const PartTypeText = "text"

// Part is one piece of a turn's content. Only text parts exist today.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Turn is one message of a conversation as exchanged between the UI and /api/chat.
type Turn struct {
	ID    TurnID `json:"id"`
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Message is the chat-completion wire shape sent to the inference server.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []Turn `json:"messages"`
}

// TurnID is an opaque identity token. Browsers send it as a string, the server
// answers with a number, so both forms are accepted. Any other JSON value
// decodes to an empty id.
type TurnID string

func (id TurnID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *TurnID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = TurnID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// ids are never read, so an unusable one is dropped
		*id = ""
		return nil
	}
	*id = TurnID(n.String())
	return nil
}

var (
	idMu   sync.Mutex
	lastID int64
)

// NewID returns a millisecond timestamp, bumped when the clock has not moved
// since the previous call so ids keep increasing.
func NewID() TurnID {
	idMu.Lock()
	defer idMu.Unlock()

	now := time.Now().UnixMilli()
	if now <= lastID {
		now = lastID + 1
	}
	lastID = now
	return TurnID(strconv.FormatInt(now, 10))
}

func NewTurn(role, text string) Turn {
	return Turn{
		ID:    NewID(),
		Role:  role,
		Parts: []Part{{Type: PartTypeText, Text: text}},
	}
}

func NewUserTurn(text string) Turn {
	return NewTurn(RoleUser, text)
}

func NewAssistantTurn(text string) Turn {
	return NewTurn(RoleAssistant, text)
}

// Text returns the text of the first part. Later parts are never consulted,
// so a turn opening with a non-text part has no text.
func (t Turn) Text() (string, bool) {
	if len(t.Parts) == 0 || t.Parts[0].Text == "" {
		return "", false
	}
	return t.Parts[0].Text, true
}
