package ui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// RegistrationWait shows the device serial and the time spent waiting while
// issue asks the backend for a dongle id, then leaves a single line saying
// whether the device ended up registered. Without a terminal issue runs
// synchronously and nothing is drawn. Ctrl+C cancels the request.
func RegistrationWait(ctx context.Context, serial string, issue func(ctx context.Context) (string, error)) (string, error) {
	if !IsInteractive() {
		return issue(ctx)
	}

	m := newRegistrationModel(serial, time.Now)

	issueCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(m,
		tea.WithOutput(os.Stderr),
		tea.WithContext(ctx),
	)
	go func() {
		id, err := issue(issueCtx)
		p.Send(issuedMsg{id: id, err: err})
	}()

	if _, err := p.Run(); err != nil {
		return "", fmt.Errorf("registration display: %w", err)
	}
	if m.cancelled {
		return "", context.Canceled
	}
	return m.id, m.err
}

type issuedMsg struct {
	id  string
	err error
}

type registrationModel struct {
	spinner spinner.Model
	serial  string
	now     func() time.Time
	since   time.Time

	id        string
	err       error
	finished  bool
	cancelled bool
}

func newRegistrationModel(serial string, now func() time.Time) *registrationModel {
	if serial == "" {
		serial = "unknown serial"
	}
	return &registrationModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(AccentStyle),
		),
		serial: serial,
		now:    now,
		since:  now(),
	}
}

func (m *registrationModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *registrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancelled = true
			return m, tea.Quit
		}
	case issuedMsg:
		m.id, m.err = msg.id, msg.err
		m.finished = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View keeps the outcome on screen once the program quits.
func (m *registrationModel) View() string {
	switch {
	case m.cancelled:
		return ""
	case !m.finished:
		waited := m.now().Sub(m.since).Truncate(time.Second)
		return fmt.Sprintf("%s Registering device %s %s\n",
			m.spinner.View(), BoldStyle.Render(m.serial), MutedStyle.Render(waited.String()))
	case m.err != nil || m.id == "":
		return ErrorStyle.Render("unregistered") + " " + m.serial + MutedStyle.Render(registrationCause(m.err)) + "\n"
	default:
		return SuccessStyle.Render("registered") + " " + m.serial + " as " + BoldStyle.Render(m.id) + "\n"
	}
}

func registrationCause(err error) string {
	if err == nil {
		return ": backend returned no id"
	}
	return ": " + err.Error()
}
