package console

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/reginold/slack-bot-agentic/internal/channels"
)

// Messages sent into the program by the channel.
type (
	PostMsg struct {
		ID       string
		Text     string
		Markdown bool
	}
	UpdateMsg struct {
		ID       string
		Text     string
		Markdown bool
	}
	ReactionMsg struct {
		ID    string
		Name  string
		Added bool
	}
)

// Styles holds the console's lipgloss styles.
type Styles struct {
	Header   lipgloss.Style
	UserMsg  lipgloss.Style
	BotMsg   lipgloss.Style
	Reaction lipgloss.Style
	Help     lipgloss.Style
}

// DefaultStyles returns the default styles
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1),
		UserMsg:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		BotMsg:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Reaction: lipgloss.NewStyle().Faint(true),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

type entry struct {
	id        string
	fromUser  bool
	text      string
	markdown  bool
	reactions []string
}

// Model is the console's bubbletea state.
type Model struct {
	width  int
	height int
	ready  bool

	entries  []entry
	input    textinput.Model
	viewport viewport.Model
	styles   Styles

	// submit hands user input to the channel and returns the mention id.
	submit func(text string) string
}

// NewModel creates a console model. submit is called for every line the
// user enters.
func NewModel(submit func(text string) string) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask something, e.g. \"search for Go release notes\""
	ti.CharLimit = 4096
	ti.Focus()

	return Model{
		input:    ti,
		viewport: viewport.New(80, 20),
		styles:   DefaultStyles(),
		submit:   submit,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleSend(), nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = msg.Height - 4
		m.input.Width = msg.Width - 4
		m.refresh()

	case PostMsg:
		m.entries = append(m.entries, entry{id: msg.ID, text: msg.Text, markdown: msg.Markdown})
		m.refresh()

	case UpdateMsg:
		if e := m.find(msg.ID); e != nil {
			e.text = msg.Text
			e.markdown = msg.Markdown
			m.refresh()
		}

	case ReactionMsg:
		if e := m.find(msg.ID); e != nil {
			e.reactions = toggle(e.reactions, msg.Name, msg.Added)
			m.refresh()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSend() Model {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m
	}
	m.input.Reset()

	id := ""
	if m.submit != nil {
		id = m.submit(text)
	}
	m.entries = append(m.entries, entry{id: id, fromUser: true, text: text})
	m.refresh()
	return m
}

func (m *Model) find(id string) *entry {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].id == id {
			return &m.entries[i]
		}
	}
	return nil
}

func toggle(list []string, name string, add bool) []string {
	out := make([]string, 0, len(list)+1)
	for _, r := range list {
		if r != name {
			out = append(out, r)
		}
	}
	if add {
		out = append(out, name)
	}
	return out
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderChat())
	m.viewport.GotoBottom()
}

// renderChat renders the conversation for the viewport
func (m Model) renderChat() string {
	var sb strings.Builder
	for _, e := range m.entries {
		if e.fromUser {
			sb.WriteString(m.styles.UserMsg.Render("You: "))
			sb.WriteString(e.text)
		} else {
			sb.WriteString(m.styles.BotMsg.Render("Bot: "))
			sb.WriteString("\n")
			sb.WriteString(m.renderBody(e))
		}
		if len(e.reactions) > 0 {
			glyphs := make([]string, 0, len(e.reactions))
			for _, r := range e.reactions {
				if g := channels.EmojiGlyph(r); g != "" {
					glyphs = append(glyphs, g)
				} else {
					glyphs = append(glyphs, ":"+r+":")
				}
			}
			sb.WriteString(" " + m.styles.Reaction.Render(strings.Join(glyphs, " ")))
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (m Model) renderBody(e entry) string {
	if !e.markdown || !m.ready {
		return e.text
	}
	return renderMarkdown(e.text, m.viewport.Width)
}

// renderMarkdown renders Markdown with glamour, falling back to the raw text.
func renderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

// View implements tea.Model
func (m Model) View() string {
	if !m.ready {
		return "Starting console...\n"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render("slackbot console"),
		m.viewport.View(),
		m.input.View(),
		m.styles.Help.Render("enter: send • esc: quit"),
	)
}
