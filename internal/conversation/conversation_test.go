package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/bz888/localchat/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Chat(ctx context.Context, turns []chat.Turn) (chat.Turn, error) {
	args := m.Called(ctx, turns)
	turn, _ := args.Get(0).(chat.Turn)
	return turn, args.Error(1)
}

func texts(turns []chat.Turn) []string {
	out := make([]string, len(turns))
	for i, turn := range turns {
		out[i] = turn.Role + ":" + turn.Parts[0].Text
	}
	return out
}

func TestSubmitEmptyIsNoop(t *testing.T) {
	sender := new(MockSender)
	c := New(sender)

	require.NoError(t, c.Submit(context.Background(), Prompt{}))

	assert.Empty(t, c.History())
	assert.False(t, c.Loading())
	sender.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestSubmitAppendsUserAndReply(t *testing.T) {
	sender := new(MockSender)
	c := New(sender)

	var loadingDuringSend bool
	sender.On("Chat", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			loadingDuringSend = c.Loading()
			sent := args.Get(1).([]chat.Turn)
			assert.Equal(t, []string{"user:Hello"}, texts(sent))
		}).
		Return(chat.NewAssistantTurn("Hi!"), nil).Once()

	require.NoError(t, c.Submit(context.Background(), Prompt{Text: "Hello"}))

	assert.True(t, loadingDuringSend)
	assert.False(t, c.Loading())
	assert.Equal(t, []string{"user:Hello", "assistant:Hi!"}, texts(c.History()))
	sender.AssertExpectations(t)
}

func TestSubmitSendsFullHistory(t *testing.T) {
	sender := new(MockSender)
	c := New(sender)

	sender.On("Chat", mock.Anything, mock.MatchedBy(func(turns []chat.Turn) bool { return len(turns) == 1 })).
		Return(chat.NewAssistantTurn("one"), nil).Once()
	sender.On("Chat", mock.Anything, mock.MatchedBy(func(turns []chat.Turn) bool {
		return assert.ObjectsAreEqual([]string{"user:first", "assistant:one", "user:second"}, texts(turns))
	})).Return(chat.NewAssistantTurn("two"), nil).Once()

	require.NoError(t, c.Submit(context.Background(), Prompt{Text: "first"}))
	require.NoError(t, c.Submit(context.Background(), Prompt{Text: "second"}))

	assert.Equal(t, []string{"user:first", "assistant:one", "user:second", "assistant:two"}, texts(c.History()))
	sender.AssertExpectations(t)
}

func TestSubmitAttachmentsOnlyUsesPlaceholder(t *testing.T) {
	sender := new(MockSender)
	c := New(sender)
	sender.On("Chat", mock.Anything, mock.Anything).Return(chat.NewAssistantTurn("I can't see files."), nil)

	require.NoError(t, c.Submit(context.Background(), Prompt{Attachments: []string{"/tmp/cat.png"}}))

	history := c.History()
	require.Len(t, history, 2)
	assert.Equal(t, AttachmentPlaceholder, history[0].Parts[0].Text)
}

func TestSubmitFailureKeepsUserTurnOnly(t *testing.T) {
	sender := new(MockSender)
	c := New(sender)
	sender.On("Chat", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	err := c.Submit(context.Background(), Prompt{Text: "Hello"})

	assert.Error(t, err)
	assert.False(t, c.Loading())
	assert.Equal(t, []string{"user:Hello"}, texts(c.History()))
}

func TestRegenerateWithoutUserTurnIsNoop(t *testing.T) {
	sender := new(MockSender)
	c := New(sender)

	require.NoError(t, c.Regenerate(context.Background()))

	assert.Empty(t, c.History())
	sender.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestRegenerateAppendsDuplicateUserTurn(t *testing.T) {
	sender := new(MockSender)
	c := New(sender)
	sender.On("Chat", mock.Anything, mock.Anything).Return(chat.NewAssistantTurn("Hi!"), nil).Once()
	sender.On("Chat", mock.Anything, mock.Anything).Return(chat.NewAssistantTurn("Hello again!"), nil).Once()

	require.NoError(t, c.Submit(context.Background(), Prompt{Text: "Hello"}))
	require.NoError(t, c.Regenerate(context.Background()))

	assert.Equal(t, []string{"user:Hello", "assistant:Hi!", "user:Hello", "assistant:Hello again!"}, texts(c.History()))
	sender.AssertNumberOfCalls(t, "Chat", 2)
}

func TestRegenerateAfterFailedSubmit(t *testing.T) {
	sender := new(MockSender)
	c := New(sender)
	sender.On("Chat", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
	sender.On("Chat", mock.Anything, mock.Anything).Return(chat.NewAssistantTurn("ok"), nil).Once()

	assert.Error(t, c.Submit(context.Background(), Prompt{Text: "Hello"}))
	require.NoError(t, c.Regenerate(context.Background()))

	assert.Equal(t, []string{"user:Hello", "user:Hello", "assistant:ok"}, texts(c.History()))
}

func TestLastAssistantText(t *testing.T) {
	sender := new(MockSender)
	c := New(sender)

	_, ok := c.LastAssistantText()
	assert.False(t, ok)

	sender.On("Chat", mock.Anything, mock.Anything).Return(chat.Turn{
		ID:    chat.NewID(),
		Role:  chat.RoleAssistant,
		Parts: []chat.Part{{Type: chat.PartTypeText, Text: "first part"}, {Type: chat.PartTypeText, Text: "last part"}},
	}, nil).Once()
	sender.On("Chat", mock.Anything, mock.Anything).Return(nil, errors.New("down")).Once()

	require.NoError(t, c.Submit(context.Background(), Prompt{Text: "Q1"}))
	_ = c.Submit(context.Background(), Prompt{Text: "Q2"})

	text, ok := c.LastAssistantText()
	assert.True(t, ok)
	assert.Equal(t, "last part", text)
}

func TestOnChangeFires(t *testing.T) {
	sender := new(MockSender)
	c := New(sender)
	sender.On("Chat", mock.Anything, mock.Anything).Return(chat.NewAssistantTurn("Hi!"), nil)

	calls := 0
	c.OnChange(func() {
		calls++
		// callback must be able to read state
		_ = c.History()
	})

	require.NoError(t, c.Submit(context.Background(), Prompt{Text: "Hello"}))
	assert.Equal(t, 2, calls)
}
