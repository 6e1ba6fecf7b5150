package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rivo/tview"
)

// newMarkdown renders Markdown with glamour and converts the ANSI output into
// tview colour tags. Text glamour cannot render is shown verbatim.
func newMarkdown(wordWrap int) (MarkdownFunc, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return nil, err
	}

	return func(text string) string {
		out, err := renderer.Render(text)
		if err != nil {
			return plainText(text)
		}
		return tview.TranslateANSI(strings.Trim(out, "\n"))
	}, nil
}
