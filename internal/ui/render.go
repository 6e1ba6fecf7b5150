package ui

import (
	"strings"

	"github.com/bz888/localchat/internal/chat"
	"github.com/rivo/tview"
)

const (
	actionsLine     = "[::d]↻ Retry (Ctrl-R)   ⧉ Copy (Ctrl-T)[::-]"
	loadingLine     = "[yellow::i]Thinking...[-::-]"
	roleLabelUser   = "[red::b]You:[-::-]"
	roleLabelBot    = "[green::b]Bot:[-::-]"
	roleLabelSystem = "[blue::b]System:[-::-]"
)

// MarkdownFunc turns assistant text into tview-tagged text.
type MarkdownFunc func(string) string

// plainText shows text verbatim.
func plainText(text string) string {
	return tview.Escape(text)
}

// Render draws the whole history. Retry and Copy actions follow the last part
// of the final assistant turn only, and a loading line closes the view while a
// request is in flight.
func Render(turns []chat.Turn, loading bool, markdown MarkdownFunc) string {
	if markdown == nil {
		markdown = plainText
	}

	lastAssistant := -1
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == chat.RoleAssistant {
			lastAssistant = i
			break
		}
	}

	var b strings.Builder
	for i, turn := range turns {
		b.WriteString(roleLabel(turn.Role))
		b.WriteString("\n")

		for j, part := range turn.Parts {
			if turn.Role == chat.RoleAssistant {
				b.WriteString(markdown(part.Text))
			} else {
				b.WriteString(plainText(part.Text))
			}
			b.WriteString("\n")

			if i == lastAssistant && j == len(turn.Parts)-1 {
				b.WriteString(actionsLine)
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}

	if loading {
		b.WriteString(loadingLine)
		b.WriteString("\n")
	}
	return b.String()
}

func roleLabel(role string) string {
	switch role {
	case chat.RoleUser:
		return roleLabelUser
	case chat.RoleAssistant:
		return roleLabelBot
	case chat.RoleSystem:
		return roleLabelSystem
	default:
		return "[::b]" + tview.Escape(role) + ":[::-]"
	}
}
