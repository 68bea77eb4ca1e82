package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ChatPort is the TUI-facing subset of the session.
type ChatPort interface {
	LoadVideo(ctx context.Context, rawURL string) error
	Ask(ctx context.Context, question string) string
	Ready() bool
	VideoTitle() string
	Summary() string
	ClearHistory()
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	session  ChatPort
	input    textinput.Model
	viewport viewport.Model
	lines    []string
	status   string
	busy     bool
	ready    bool
}

// videoLoadedMsg reports a finished LoadVideo command.
type videoLoadedMsg struct {
	title   string
	summary string
	err     error
}

// answerMsg reports a finished Ask command. The question line is
// already in the chat log; only the answer gets appended.
type answerMsg struct {
	answer string
}

// New creates a new TUI model instance.
func New(session ChatPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the video, or /video <url> to load one"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	m := Model{session: session, input: ti, viewport: vp, status: "Paste a YouTube link with /video <url>."}
	if session.Ready() {
		m.status = "Watching: " + session.VideoTitle()
		if s := session.Summary(); s != "" {
			m.lines = append(m.lines, botStyle.Render("Yelly: ")+"Here's the gist so far. "+s)
		}
	}
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and command-completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around chat and input boxes
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		totalHeaderLines := 1                                    // header
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + ih + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ch)
		m.refresh()
		return m, nil
	case videoLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.refresh()
			return m, nil
		}
		m.lines = nil
		m.status = "Watching: " + msg.title
		greeting := "Loaded! Ask me anything about this video."
		if msg.summary != "" {
			greeting += " Here's the gist: " + msg.summary
		}
		m.lines = append(m.lines, botStyle.Render("Yelly: ")+greeting)
		m.refresh()
		return m, nil
	case answerMsg:
		m.busy = false
		m.status = "Watching: " + m.session.VideoTitle()
		m.lines = append(m.lines, botStyle.Render("Yelly: ")+msg.answer)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.busy {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			m.input.SetValue("")
			return m.dispatch(line)
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// dispatch routes an entered line: /video loads a new video, /clear
// resets the conversation, anything else is a question.
func (m Model) dispatch(line string) (tea.Model, tea.Cmd) {
	switch {
	case strings.HasPrefix(line, "/video"):
		rawURL := strings.TrimSpace(strings.TrimPrefix(line, "/video"))
		if rawURL == "" {
			m.status = "Usage: /video <youtube-url>"
			return m, nil
		}
		m.busy = true
		m.status = "Fetching transcript..."
		return m, m.loadVideoCmd(rawURL)
	case line == "/clear":
		m.session.ClearHistory()
		m.lines = nil
		m.status = "History cleared."
		m.refresh()
		return m, nil
	default:
		m.busy = true
		m.status = "Thinking..."
		m.lines = append(m.lines, userStyle.Render("You: ")+line)
		m.refresh()
		return m, m.askCmd(line)
	}
}

func (m Model) loadVideoCmd(rawURL string) tea.Cmd {
	return func() tea.Msg {
		if err := m.session.LoadVideo(context.Background(), rawURL); err != nil {
			return videoLoadedMsg{err: err}
		}
		return videoLoadedMsg{title: m.session.VideoTitle(), summary: m.session.Summary()}
	}
}

func (m Model) askCmd(question string) tea.Cmd {
	return func() tea.Msg {
		return answerMsg{answer: m.session.Ask(context.Background(), question)}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderChat())
	m.viewport.GotoBottom()
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Yelly")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) renderChat() string {
	if len(m.lines) == 0 {
		return "No messages yet."
	}
	wrap := lipgloss.NewStyle().Width(max(20, m.viewport.Width-2))
	rendered := make([]string, len(m.lines))
	for i, l := range m.lines {
		rendered[i] = wrap.Render(l)
	}
	return strings.Join(rendered, "\n\n")
}

var (
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
