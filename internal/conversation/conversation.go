// Package conversation owns the chat history shown by the UI and drives the
// request/response cycle against the chat server.
package conversation

import (
	"context"
	"sync"

	"github.com/bz888/localchat/internal/chat"
	"github.com/bz888/localchat/internal/logger"
)

// AttachmentPlaceholder is the user text sent when a prompt carries only
// attachments. Attachment contents are never transmitted.
const AttachmentPlaceholder = "Sent with attachments"

// Sender delivers the full history and returns the assistant's reply.
type Sender interface {
	Chat(ctx context.Context, turns []chat.Turn) (chat.Turn, error)
}

// Prompt is one submission from the input area.
type Prompt struct {
	Text        string
	Attachments []string
}

func (p Prompt) empty() bool {
	return p.Text == "" && len(p.Attachments) == 0
}

// Conversation is the ordered, in-memory history of one chat session. All
// mutation goes through Submit and Regenerate.
type Conversation struct {
	mu       sync.Mutex
	turns    []chat.Turn
	loading  bool
	sender   Sender
	onChange func()

	localLogger *logger.Logger
}

func New(sender Sender) *Conversation {
	return &Conversation{
		sender:      sender,
		localLogger: logger.NewLogger("conversation"),
	}
}

// OnChange registers a callback fired after every history or loading change.
// It runs on the goroutine that made the change, without the lock held.
func (c *Conversation) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Submit appends a user turn, sends the history and appends the reply. It
// blocks for the round trip. A failed send is logged and returned; the user
// turn stays and no reply is added. An empty prompt is ignored.
func (c *Conversation) Submit(ctx context.Context, prompt Prompt) error {
	if prompt.empty() {
		return nil
	}

	text := prompt.Text
	if text == "" {
		text = AttachmentPlaceholder
	}
	userTurn := chat.NewUserTurn(text)

	c.mu.Lock()
	c.turns = append(c.turns, userTurn)
	history := append([]chat.Turn(nil), c.turns...)
	c.loading = true
	c.mu.Unlock()
	c.changed()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
		c.changed()
	}()

	reply, err := c.sender.Chat(ctx, history)
	if err != nil {
		c.localLogger.Error("Chat request failed:", err)
		return err
	}

	c.mu.Lock()
	c.turns = append(c.turns, reply)
	c.mu.Unlock()
	return nil
}

// Regenerate resubmits the text of the most recent user turn, which appends a
// second copy of that turn. Without any user turn it does nothing.
func (c *Conversation) Regenerate(ctx context.Context) error {
	text, ok := c.lastUserText()
	if !ok {
		return nil
	}
	return c.Submit(ctx, Prompt{Text: text})
}

func (c *Conversation) lastUserText() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.turns) - 1; i >= 0; i-- {
		if c.turns[i].Role != chat.RoleUser {
			continue
		}
		if len(c.turns[i].Parts) == 0 {
			return "", false
		}
		return c.turns[i].Parts[0].Text, true
	}
	return "", false
}

// History returns a copy of the turns in order.
func (c *Conversation) History() []chat.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chat.Turn(nil), c.turns...)
}

func (c *Conversation) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastAssistantText is the text of the final part of the final assistant turn,
// the one the Copy action acts on.
func (c *Conversation) LastAssistantText() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.turns) - 1; i >= 0; i-- {
		turn := c.turns[i]
		if turn.Role != chat.RoleAssistant {
			continue
		}
		if len(turn.Parts) == 0 {
			return "", false
		}
		return turn.Parts[len(turn.Parts)-1].Text, true
	}
	return "", false
}

func (c *Conversation) changed() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
