// Package tui is the terminal chat frontend.
package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/internal/service/chat"
	"github.com/sandevgo/piichat/internal/service/ui"
	"github.com/sandevgo/piichat/pkg/conv"
)

const (
	headerHeight = 2
	footerHeight = 5
)

// ui.TitleStyle carries a margin the fixed header height does not allow for.
var titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)

type ChatService interface {
	Submit(ctx context.Context, sessionID, raw string) (chat.Reply, error)
	Reset(ctx context.Context, sessionID string) []core.Exchange
	Transcript(ctx context.Context, sessionID string) []core.Exchange
}

type replyMsg struct {
	reply chat.Reply
}

type failedMsg struct {
	err error
}

type commandMsg struct {
	output     string
	transcript []core.Exchange
}

type Model struct {
	ctx       context.Context
	chat      ChatService
	router    core.CmdRouter
	sessionID string

	viewport   viewport.Model
	input      textinput.Model
	spinner    spinner.Model
	transcript []core.Exchange
	notice     string
	err        error
	pending    bool
	ready      bool
	width      int
}

func NewModel(ctx context.Context, chat ChatService, router core.CmdRouter, sessionID string) Model {
	ti := textinput.New()
	ti.Placeholder = "Enter text and press enter"
	ti.CharLimit = 8000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:        ctx,
		chat:       chat,
		router:     router,
		sessionID:  sessionID,
		input:      ti,
		spinner:    sp,
		transcript: chat.Transcript(ctx, sessionID),
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := msg.Height - headerHeight - footerHeight
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.input.Width = msg.Width - 4
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+n":
			if !m.pending {
				m.transcript = m.chat.Reset(m.ctx, m.sessionID)
				m.notice, m.err = "Conversation cleared", nil
				m.refresh()
			}
			return m, nil
		case "enter":
			if m.pending {
				return m, nil
			}
			text := m.input.Value()
			if strings.TrimSpace(text) == "" {
				return m, nil
			}
			m.input.Reset()
			m.err = nil
			if m.router.IsCommand(text) {
				return m, m.command(text)
			}
			m.pending = true
			m.notice = ""
			return m, tea.Batch(m.submit(text), m.spinner.Tick)
		}

	case replyMsg:
		m.pending = false
		m.transcript = msg.reply.Transcript
		m.notice = redactionNotice(msg.reply.Counts)
		m.refresh()
		return m, nil

	case failedMsg:
		m.pending = false
		m.err = msg.err
		return m, nil

	case commandMsg:
		m.notice = conv.MarkdownToText([]byte(msg.output))
		m.transcript = msg.transcript
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) submit(text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := m.chat.Submit(m.ctx, m.sessionID, text)
		if err != nil {
			return failedMsg{err: err}
		}
		return replyMsg{reply: reply}
	}
}

func (m Model) command(text string) tea.Cmd {
	return func() tea.Msg {
		out, _ := m.router.Execute(m.ctx, m.sessionID, text)
		return commandMsg{output: out, transcript: m.chat.Transcript(m.ctx, m.sessionID)}
	}
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderTranscript(m.transcript, m.width))
	m.viewport.GotoBottom()
}

func renderTranscript(transcript []core.Exchange, width int) string {
	if len(transcript) == 0 {
		return ui.NoticeStyle.Render("Personal data is replaced with placeholders such as <PERSON> before it is sent.")
	}

	wrap := lipgloss.NewStyle()
	if width > 2 {
		wrap = wrap.Width(width - 2)
	}

	var b strings.Builder
	for _, ex := range transcript {
		b.WriteString(ui.UserStyle.Render("You (as sent)") + "\n")
		b.WriteString(wrap.Render(ex.User) + "\n\n")
		b.WriteString(ui.AssistantStyle.Render("Assistant") + "\n")
		b.WriteString(wrap.Render(conv.MarkdownToText([]byte(ex.Assistant))) + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func redactionNotice(counts map[core.EntityKind]int) string {
	if len(counts) == 0 {
		return ""
	}
	var parts []string
	for _, k := range core.AllEntityKinds() {
		if n := counts[k]; n > 0 {
			parts = append(parts, k.Placeholder()+" x"+strconv.Itoa(n))
		}
	}
	return "Redacted: " + strings.Join(parts, ", ")
}

func (m Model) View() string {
	if !m.ready {
		return "Starting...\n"
	}

	var status string
	switch {
	case m.pending:
		status = m.spinner.View() + " Redacting and sending..."
	case m.err != nil:
		status = ui.ErrorStyle.Render(errorText(m.err))
	default:
		status = ui.NoticeStyle.Render(m.notice)
	}

	return titleStyle.Render(core.AppName) + "\n\n" +
		m.viewport.View() + "\n\n" +
		status + "\n" +
		m.input.View() + "\n" +
		ui.DescStyle.Render("enter send • ctrl+n new chat • /model • /entities • esc quit")
}

func errorText(err error) string {
	var (
		detErr *core.DetectionError
		trErr  *core.TransportError
	)
	switch {
	case errors.Is(err, core.ErrEmptyMessage):
		return "Message is empty"
	case errors.As(err, &detErr):
		return "PII detection failed, nothing was sent: " + detErr.Err.Error()
	case errors.As(err, &trErr):
		return "Language model request failed: " + trErr.Err.Error()
	}
	return err.Error()
}

// Run blocks until the user quits.
func Run(ctx context.Context, chat ChatService, router core.CmdRouter, sessionID string) error {
	p := tea.NewProgram(NewModel(ctx, chat, router, sessionID), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
