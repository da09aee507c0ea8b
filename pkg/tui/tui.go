// Package tui implements the interactive terminal overlay: a query input,
// a live streaming view while a completion is in flight, a review panel for
// the generated command, and a scrollable diff view for suggested patches.
package tui

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/thamam/ai-cli/pkg/ai"
	"github.com/thamam/ai-cli/pkg/safety"
)

type mode int

const (
	modeInput mode = iota
	modeThinking
	modeReview
	modeDiff
)

// Options configures a single overlay session.
type Options struct {
	Provider ai.Provider

	// SystemPrompt, ContextFiles and History are folded into the
	// completion request exactly as given.
	SystemPrompt string
	ContextFiles []ai.ContextFile
	History      []string

	// InitialQuery pre-fills the input buffer (lens mode passes the
	// current command line).
	InitialQuery string

	// InitialDiff, when non-empty, opens the overlay directly in the
	// diff view (sentinel --interactive).
	InitialDiff string
}

// Result reports what the user accepted before the overlay closed.
type Result struct {
	// Command is the generated command; Execute is true when the user
	// accepted it with Enter from the review panel.
	Command string
	Execute bool

	// Patch is the diff text; ApplyPatch is true when the user accepted
	// it with Enter from the diff view.
	Patch      string
	ApplyPatch bool
}

// messages produced by the streaming commands

type streamOpenedMsg struct{ stream ai.Stream }

type fragmentMsg struct{ text string }

type streamDoneMsg struct{}

type streamFailedMsg struct{ err error }

type model struct {
	opts Options

	mode    mode
	input   textinput.Model
	spin    spinner.Model
	width   int
	height  int
	errText string

	// streaming state
	ctx     context.Context
	cancel  context.CancelFunc
	stream  ai.Stream
	partial string

	// review state
	command         string
	showExplanation bool

	// diff state
	diffLines []string
	scroll    int

	result Result
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	commandStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Padding(0, 1)
	dangerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func newModel(opts Options) model {
	ti := textinput.New()
	ti.Placeholder = "Describe the command you need..."
	ti.SetValue(opts.InitialQuery)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := model{
		opts:  opts,
		mode:  modeInput,
		input: ti,
		spin:  sp,
	}
	if opts.InitialDiff != "" {
		m.mode = modeDiff
		m.diffLines = strings.Split(strings.TrimRight(opts.InitialDiff, "\n"), "\n")
		m.result.Patch = opts.InitialDiff
	}
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) buildRequest(query string) ai.CompletionRequest {
	return ai.CompletionRequest{
		SystemPrompt: m.opts.SystemPrompt,
		UserQuery:    query,
		ContextFiles: m.opts.ContextFiles,
		History:      m.opts.History,
	}
}

// openStream starts the completion off the event loop; fragments arrive as
// messages so the spinner keeps animating while the request is in flight.
func openStream(ctx context.Context, p ai.Provider, req ai.CompletionRequest) tea.Cmd {
	return func() tea.Msg {
		stream, err := p.StreamCompletion(ctx, req)
		if err != nil {
			return streamFailedMsg{err: err}
		}
		return streamOpenedMsg{stream: stream}
	}
}

func readNext(stream ai.Stream) tea.Cmd {
	return func() tea.Msg {
		frag, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return streamDoneMsg{}
			}
			return streamFailedMsg{err: err}
		}
		return fragmentMsg{text: frag}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.teardown()
			return m, tea.Quit
		}
		switch m.mode {
		case modeInput:
			return m.updateInput(msg)
		case modeThinking:
			// the interrupt key is handled above; everything else is
			// ignored while a stream is in flight
			return m, nil
		case modeReview:
			return m.updateReview(msg)
		case modeDiff:
			return m.updateDiff(msg)
		}

	case streamOpenedMsg:
		m.stream = msg.stream
		return m, readNext(m.stream)

	case fragmentMsg:
		m.partial += msg.text
		return m, readNext(m.stream)

	case streamDoneMsg:
		m.finishStream()
		m.command = strings.TrimSpace(m.partial)
		m.result.Command = m.command
		if m.command == "" {
			m.errText = ai.NoResponse
			m.mode = modeInput
			return m, textinput.Blink
		}
		m.mode = modeReview
		return m, nil

	case streamFailedMsg:
		m.finishStream()
		m.errText = msg.err.Error()
		m.partial = ""
		m.mode = modeInput
		return m, textinput.Blink

	case spinner.TickMsg:
		if m.mode == modeThinking {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.mode == modeInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.teardown()
		return m, tea.Quit
	case tea.KeyEnter:
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		m.errText = ""
		m.partial = ""
		m.mode = modeThinking
		m.ctx, m.cancel = context.WithCancel(context.Background())
		return m, tea.Batch(
			m.spin.Tick,
			openStream(m.ctx, m.opts.Provider, m.buildRequest(query)),
		)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.result.Execute = true
		return m, tea.Quit
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyTab:
		m.showExplanation = !m.showExplanation
		return m, nil
	}
	return m, nil
}

func (m model) updateDiff(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.result.ApplyPatch = true
		return m, tea.Quit
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyUp:
		if m.scroll > 0 {
			m.scroll--
		}
		return m, nil
	case tea.KeyDown:
		if m.scroll < m.maxScroll() {
			m.scroll++
		}
		return m, nil
	}
	return m, nil
}

func (m *model) maxScroll() int {
	max := len(m.diffLines) - m.diffWindow()
	if max < 0 {
		max = 0
	}
	return max
}

func (m *model) diffWindow() int {
	h := m.height - 6
	if h < 1 {
		h = 10
	}
	return h
}

// finishStream closes the stream and releases the request context without
// marking the session cancelled.
func (m *model) finishStream() {
	if m.stream != nil {
		m.stream.Close()
		m.stream = nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// teardown aborts any in-flight request before the overlay exits.
func (m *model) teardown() {
	m.result.Execute = false
	m.result.ApplyPatch = false
	m.finishStream()
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("AETHER"))
	b.WriteString("  ")
	b.WriteString(promptStyle.Render(m.opts.Provider.ModelName()))
	b.WriteString("\n\n")

	switch m.mode {
	case modeInput:
		if m.errText != "" {
			b.WriteString(errorStyle.Render(m.errText))
			b.WriteString("\n\n")
		}
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter: generate • esc: close"))

	case modeThinking:
		b.WriteString(m.spin.View())
		b.WriteString(" thinking...\n\n")
		if m.partial != "" {
			b.WriteString(panelStyle.Render(m.partial))
			b.WriteString("\n\n")
		}
		b.WriteString(helpStyle.Render("ctrl+c: cancel"))

	case modeReview:
		b.WriteString(panelStyle.Render(commandStyle.Render(m.command)))
		b.WriteString("\n")
		analysis := safety.Analyze(m.command)
		if analysis.Destructive {
			b.WriteString(dangerStyle.Render("⚠ this command is potentially destructive"))
			b.WriteString("\n")
		}
		if m.showExplanation {
			b.WriteString("\n")
			b.WriteString(panelStyle.Render(m.explanation(analysis)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter: run • tab: explain • esc: dismiss"))

	case modeDiff:
		b.WriteString(m.renderDiff())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter: apply • ↑/↓: scroll • esc: dismiss"))
	}

	return b.String()
}

func (m model) explanation(a safety.Analysis) string {
	var b strings.Builder
	b.WriteString("Model: ")
	b.WriteString(m.opts.Provider.ModelName())
	if a.Description != "" {
		b.WriteString("\n")
		b.WriteString(a.Description)
	}
	return b.String()
}

func (m model) renderDiff() string {
	window := m.diffWindow()
	end := m.scroll + window
	if end > len(m.diffLines) {
		end = len(m.diffLines)
	}
	var b strings.Builder
	for _, line := range m.diffLines[m.scroll:end] {
		switch {
		case strings.HasPrefix(line, "+"):
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// Run opens the overlay and blocks until it closes, returning what the user
// accepted. Cancellation (Esc or Ctrl+C) returns a zero-accept Result, not
// an error.
func Run(opts Options) (Result, error) {
	p := tea.NewProgram(newModel(opts), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Result{}, err
	}
	m, ok := final.(model)
	if !ok {
		return Result{}, nil
	}
	return m.result, nil
}
