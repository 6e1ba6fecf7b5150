package handlers

import "github.com/bz888/localchat/internal/chat"

// Normalize turns UI turns into the message list sent for completion. The list
// always opens with the system prompt. Turns without text are dropped, and a
// turn whose role matches the previously accepted one is skipped, so of two
// consecutive user turns only the first is forwarded.
func Normalize(systemPrompt string, turns []chat.Turn) []chat.Message {
	messages := make([]chat.Message, 0, len(turns)+1)
	messages = append(messages, chat.Message{Role: chat.RoleSystem, Content: systemPrompt})

	lastRole := chat.RoleSystem
	for _, turn := range turns {
		text, ok := turn.Text()
		if !ok {
			continue
		}
		if turn.Role == lastRole && turn.Role != chat.RoleSystem {
			continue
		}
		messages = append(messages, chat.Message{Role: turn.Role, Content: text})
		lastRole = turn.Role
	}
	return messages
}
