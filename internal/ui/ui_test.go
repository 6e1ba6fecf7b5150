package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bz888/localchat/internal/chat"
	"github.com/bz888/localchat/internal/config"
	"github.com/bz888/localchat/internal/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	reply chat.Turn
	err   error
}

func (f *fakeSender) Chat(ctx context.Context, turns []chat.Turn) (chat.Turn, error) {
	return f.reply, f.err
}

// newTestView builds a View whose application never runs, so conversation
// changes must not be queued onto its event loop.
func newTestView(t *testing.T, sender conversation.Sender) (*View, *conversation.Conversation) {
	t.Helper()
	cfg := config.Default()
	cfg.UI.Markdown = false

	conv := conversation.New(sender)
	v := New(cfg, conv, nil)
	conv.OnChange(nil)
	return v, conv
}

func TestSplitCommand(t *testing.T) {
	name, arg := splitCommand("/attach   ./notes.txt ")
	assert.Equal(t, "/attach", name)
	assert.Equal(t, "./notes.txt", arg)

	name, arg = splitCommand("/help")
	assert.Equal(t, "/help", name)
	assert.Equal(t, "", arg)
}

func TestCopyLastReply(t *testing.T) {
	v, conv := newTestView(t, &fakeSender{reply: chat.NewAssistantTurn("**copied**")})

	var copied []string
	v.copyText = func(text string) error {
		copied = append(copied, text)
		return nil
	}

	v.copyLastReply()
	assert.Empty(t, copied)
	assert.Equal(t, "Nothing to copy yet", v.statusLine.GetText(true))

	require.NoError(t, conv.Submit(context.Background(), conversation.Prompt{Text: "hi"}))
	v.copyLastReply()
	assert.Equal(t, []string{"**copied**"}, copied)
	assert.Equal(t, "Copied reply to clipboard", v.statusLine.GetText(true))
}

func TestCopyLastReplyClipboardError(t *testing.T) {
	v, conv := newTestView(t, &fakeSender{reply: chat.NewAssistantTurn("text")})
	v.copyText = func(string) error { return errors.New("no xclip") }

	require.NoError(t, conv.Submit(context.Background(), conversation.Prompt{Text: "hi"}))
	v.copyLastReply()
	assert.Equal(t, "Clipboard unavailable", v.statusLine.GetText(true))
}

func TestAttach(t *testing.T) {
	v, _ := newTestView(t, &fakeSender{})
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	v.attach(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Empty(t, v.attachments)

	v.attach(path)
	v.attach(path)
	assert.Equal(t, []string{path, path}, v.attachments)
	assert.Equal(t, "Question (2 attachments)", v.textArea.GetTitle())

	v.attach("")
	assert.Empty(t, v.attachments)
	assert.Equal(t, "Question", v.textArea.GetTitle())
}

func TestRunCommandUnknownFallsThrough(t *testing.T) {
	v, _ := newTestView(t, &fakeSender{})
	assert.False(t, v.runCommand("/etc/hosts", ""))
	assert.True(t, v.runCommand("/debug", ""))
	assert.True(t, v.debugShown)
}
