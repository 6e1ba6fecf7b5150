package ui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/bz888/localchat/internal/api"
	"github.com/bz888/localchat/internal/config"
	"github.com/bz888/localchat/internal/conversation"
	"github.com/bz888/localchat/internal/logger"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	mainPage  = "main"
	modalPage = "modal"
)

// View is the terminal chat window: conversation pane, input area, status line
// and an optional debug console.
type View struct {
	app          *tview.Application
	pages        *tview.Pages
	mainFlex     *tview.Flex
	textView     *tview.TextView
	textArea     *tview.TextArea
	statusLine   *tview.TextView
	debugConsole *tview.TextView

	conv      *conversation.Conversation
	apiClient *api.Client
	markdown  MarkdownFunc
	copyText  func(string) error

	attachments []string
	debugShown  bool
	localLogger *logger.Logger
}

func New(cfg *config.Config, conv *conversation.Conversation, apiClient *api.Client) *View {
	v := &View{
		app:         tview.NewApplication(),
		conv:        conv,
		apiClient:   apiClient,
		markdown:    plainText,
		copyText:    clipboard.WriteAll,
		debugShown:  cfg.Dev,
		localLogger: logger.NewLogger("views"),
	}
	v.app.EnablePaste(true)
	v.app.EnableMouse(true)

	if cfg.UI.Markdown {
		md, err := newMarkdown(cfg.UI.WordWrap)
		if err != nil {
			v.localLogger.Warn("Markdown rendering disabled:", err)
		} else {
			v.markdown = md
		}
	}

	v.debugConsole = v.initDebugConsole()
	v.textView = v.initChatViewer()
	v.textArea = initChatInput()
	v.statusLine = tview.NewTextView().SetDynamicColors(true)

	subFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(v.textView, 0, 1, false).
		AddItem(v.textArea, 8, 2, true).
		AddItem(v.statusLine, 1, 0, false)
	v.mainFlex = tview.NewFlex().
		AddItem(subFlex, 0, 2, true)
	if v.debugShown {
		v.mainFlex.AddItem(v.debugConsole, 0, 1, false)
	}
	v.pages = tview.NewPages().AddPage(mainPage, v.mainFlex, true, true)

	v.setInputCapture()
	conv.OnChange(func() {
		v.app.QueueUpdateDraw(v.refresh)
	})
	v.setStatus("Type a message and press Enter. /help lists commands.")
	return v
}

func (v *View) initChatViewer() *tview.TextView {
	// redrawn only through refresh, which already runs inside QueueUpdateDraw
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	textView.SetTitle("Conversation").SetBorder(true)
	textView.SetScrollable(true)
	return textView
}

func initChatInput() *tview.TextArea {
	textArea := tview.NewTextArea()
	textArea.SetTitle("Question").SetBorder(true)
	return textArea
}

func (v *View) initDebugConsole() *tview.TextView {
	// the logger writes from any goroutine, the UI one included, and Draw
	// waits for the event loop
	console := tview.NewTextView().
		SetChangedFunc(func() {
			go v.app.Draw()
		}).
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	console.SetTitle("Debugger").SetBorder(true)
	console.ScrollToEnd()
	return console
}

// DebugConsole is handed to the logger so dev output lands in the UI.
func (v *View) DebugConsole() *tview.TextView {
	return v.debugConsole
}

func (v *View) Run() error {
	return v.app.SetRoot(v.pages, true).SetFocus(v.textArea).Run()
}

func (v *View) Stop() {
	v.app.Stop()
}

// refresh redraws the conversation; it must run on the UI goroutine.
func (v *View) refresh() {
	loading := v.conv.Loading()
	v.textView.SetText(Render(v.conv.History(), loading, v.markdown))
	v.textView.ScrollToEnd()
	v.textArea.SetDisabled(loading)
	if !loading && !v.pages.HasPage(modalPage) {
		v.app.SetFocus(v.textArea)
	}
}

func (v *View) setInputCapture() {
	v.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlR:
			v.regenerate()
			return nil
		case tcell.KeyCtrlT:
			v.copyLastReply()
			return nil
		}
		return event
	})

	v.textView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter:
			v.app.SetFocus(v.textArea)
		}
		return event
	})

	v.textArea.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyESC:
			if v.textView.GetText(false) != "" {
				v.app.SetFocus(v.textView)
			}
		case tcell.KeyEnter:
			if event.Modifiers()&tcell.ModAlt != 0 {
				return event
			}
			v.handleInput(v.textArea.GetText())
			return nil
		}
		return event
	})
}

func (v *View) handleInput(content string) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" && len(v.attachments) == 0 {
		return
	}

	if strings.HasPrefix(trimmed, "/") {
		name, arg := splitCommand(trimmed)
		if v.runCommand(name, arg) {
			v.textArea.SetText("", true)
			return
		}
	}

	prompt := conversation.Prompt{Text: trimmed, Attachments: v.attachments}
	v.attachments = nil
	v.updateInputTitle()
	v.textArea.SetText("", true)
	v.send(func(ctx context.Context) error {
		return v.conv.Submit(ctx, prompt)
	})
}

// send runs a conversation round trip off the UI goroutine. Failures are
// already logged by the conversation and show up only as a missing reply.
func (v *View) send(fn func(ctx context.Context) error) {
	v.textArea.SetDisabled(true)
	go func() {
		_ = fn(context.Background())
		v.app.QueueUpdateDraw(v.refresh)
	}()
}

func splitCommand(content string) (name, arg string) {
	name, arg, _ = strings.Cut(content, " ")
	return name, strings.TrimSpace(arg)
}

// runCommand reports whether content was a known command.
func (v *View) runCommand(name, arg string) bool {
	switch name {
	case "/help":
		v.listHelp()
	case "/bye", "/quit", "/exit":
		v.quitApp()
	case "/debug":
		v.toggleDebugConsole()
	case "/retry":
		v.regenerate()
	case "/copy":
		v.copyLastReply()
	case "/attach":
		v.attach(arg)
	case "/models":
		go v.createModelModal()
	default:
		return false
	}
	return true
}

func (v *View) regenerate() {
	if v.conv.Loading() {
		return
	}
	v.send(v.conv.Regenerate)
}

func (v *View) copyLastReply() {
	text, ok := v.conv.LastAssistantText()
	if !ok {
		v.setStatus("Nothing to copy yet")
		return
	}
	if err := v.copyText(text); err != nil {
		v.localLogger.Error("Failed to copy to clipboard:", err)
		v.setStatus("[red]Clipboard unavailable[-]")
		return
	}
	v.setStatus("Copied reply to clipboard")
}

func (v *View) attach(path string) {
	if path == "" {
		v.attachments = nil
		v.updateInputTitle()
		v.setStatus("Attachments cleared")
		return
	}
	if _, err := os.Stat(path); err != nil {
		v.localLogger.Warn("Cannot attach", path, err)
		v.setStatus(fmt.Sprintf("[red]Cannot attach %s[-]", tview.Escape(path)))
		return
	}
	v.attachments = append(v.attachments, path)
	v.updateInputTitle()
	v.setStatus("Attached " + tview.Escape(path))
}

func (v *View) updateInputTitle() {
	switch n := len(v.attachments); n {
	case 0:
		v.textArea.SetTitle("Question")
	case 1:
		v.textArea.SetTitle("Question (1 attachment)")
	default:
		v.textArea.SetTitle(fmt.Sprintf("Question (%d attachments)", n))
	}
}

func (v *View) setStatus(text string) {
	v.statusLine.SetText(text)
}

func createModal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

func (v *View) closeModal() {
	v.pages.RemovePage(modalPage)
	v.app.SetFocus(v.textArea)
}

func (v *View) createModelModal() {
	models, err := v.apiClient.ListModels(context.Background())
	if err != nil {
		v.localLogger.Error("Failed to list models:", err)
	}

	v.app.QueueUpdateDraw(func() {
		list := tview.NewList()
		list.SetBorder(true).SetTitle("Models")
		if len(models) == 0 {
			list.AddItem("No models reported", "Is the inference server running?", 0, nil)
		}
		for i, model := range models {
			list.AddItem(model, "", '1'+rune(i%9), v.closeModal)
		}
		list.AddItem("Back", "", 'q', v.closeModal)

		v.pages.AddPage(modalPage, createModal(list, 50, 12), true, true)
		v.app.SetFocus(list)
	})
	v.localLogger.Info("/models command executed and completed")
}

func (v *View) toggleDebugConsole() {
	if v.debugShown {
		v.mainFlex.RemoveItem(v.debugConsole)
		v.setStatus("Debug console disabled")
	} else {
		v.mainFlex.AddItem(v.debugConsole, 0, 1, false)
		v.setStatus("Debug console enabled")
	}
	v.debugShown = !v.debugShown
}

func (v *View) quitApp() {
	v.localLogger.Info("Shutting down gracefully.")
	v.app.Stop()
}

func (v *View) listHelp() {
	modal := tview.NewModal().
		SetText(strings.Join([]string{
			"Here are some commands you can use:",
			"",
			"/help: Display this help message",
			"/bye: Exit the application",
			"/debug: Toggle the debug console",
			"/retry (Ctrl-R): Ask again with your last message",
			"/copy (Ctrl-T): Copy the last reply",
			"/attach <path>: Attach a file, /attach alone clears",
			"/models: List models on the inference server",
		}, "\n")).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) { v.closeModal() })

	v.pages.AddPage(modalPage, modal, true, true)
	v.app.SetFocus(modal)
}
