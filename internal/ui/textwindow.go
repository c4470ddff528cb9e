package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// WindowOption configures a TextWindow.
type WindowOption func(*textWindowConfig)

type textWindowConfig struct {
	in          io.Reader
	out         io.Writer
	interactive func() bool
}

// WithIO overrides the terminal streams.
func WithIO(in io.Reader, out io.Writer) WindowOption {
	return func(c *textWindowConfig) {
		c.in = in
		c.out = out
	}
}

// WithInteractive overrides terminal detection.
func WithInteractive(interactive bool) WindowOption {
	return func(c *textWindowConfig) {
		c.interactive = func() bool { return interactive }
	}
}

// TextWindow shows text in a bordered panel and blocks until the operator
// acknowledges it. Without a terminal the text is written once and
// TextWindow returns immediately.
func TextWindow(title, text string, opts ...WindowOption) error {
	cfg := textWindowConfig{in: os.Stdin, out: os.Stderr, interactive: IsInteractive}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &textWindowModel{title: title, text: text}
	if !cfg.interactive() {
		_, err := fmt.Fprintln(cfg.out, m.panel())
		return err
	}

	p := tea.NewProgram(m,
		tea.WithInput(cfg.in),
		tea.WithOutput(cfg.out),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("text window: %w", err)
	}
	return nil
}

// Tail keeps the last n lines of s.
func Tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if n <= 0 || len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

type textWindowModel struct {
	title        string
	text         string
	width        int
	acknowledged bool
}

func (m *textWindowModel) Init() tea.Cmd { return nil }

func (m *textWindowModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "esc", "ctrl+c":
			m.acknowledged = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *textWindowModel) View() string {
	if m.acknowledged {
		return ""
	}
	return m.panel() + "\n" + MutedStyle.Render("press enter to exit")
}

func (m *textWindowModel) panel() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(red).
		Padding(1, 2)
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	return style.Render(ErrorStyle.Bold(true).Render(m.title) + "\n\n" + m.text)
}
