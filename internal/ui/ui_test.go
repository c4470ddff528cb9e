package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestEnvTruthyValues(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "one", value: "1", want: true},
		{name: "true", value: "true", want: true},
		{name: "yes", value: "yes", want: true},
		{name: "on", value: "on", want: true},
		{name: "zero", value: "0", want: false},
		{name: "false", value: "false", want: false},
		{name: "empty", value: "", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("PILOTMGR_TEST_TRUTHY", tc.value)
			if got := envTruthy("PILOTMGR_TEST_TRUTHY"); got != tc.want {
				t.Fatalf("envTruthy() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTail(t *testing.T) {
	in := "Traceback\nframe 1\nframe 2\nframe 3\nboom\n"
	if got := Tail(in, 3); got != "frame 2\nframe 3\nboom" {
		t.Fatalf("Tail(3) = %q", got)
	}
	if got := Tail("one", 5); got != "one" {
		t.Fatalf("Tail(short) = %q", got)
	}
}

func TestTextWindow_NonInteractiveWritesOnce(t *testing.T) {
	var out bytes.Buffer
	err := TextWindow("Manager failed to start", "registration failed",
		WithIO(strings.NewReader(""), &out),
		WithInteractive(false),
	)
	if err != nil {
		t.Fatalf("TextWindow: %v", err)
	}
	if !strings.Contains(out.String(), "registration failed") {
		t.Fatalf("output missing error text: %q", out.String())
	}
}

func TestTextWindowModel_AcknowledgeQuits(t *testing.T) {
	m := &textWindowModel{title: "t", text: "body"}
	if !strings.Contains(m.View(), "body") {
		t.Fatal("view should show the text before acknowledgement")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if cmd != nil || m.acknowledged {
		t.Fatal("unrelated key should not acknowledge")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.acknowledged || cmd == nil {
		t.Fatal("enter should acknowledge and quit")
	}
	if m.View() != "" {
		t.Fatal("view should be empty after acknowledgement")
	}
}

func TestRegistrationWait_NonInteractiveRunsIssue(t *testing.T) {
	t.Setenv(envNoInteraction, "1")
	var got string
	id, err := RegistrationWait(context.Background(), "c0ffee42", func(context.Context) (string, error) {
		got = "issued"
		return "feedbeef", nil
	})
	if err != nil || id != "feedbeef" || got != "issued" {
		t.Fatalf("RegistrationWait() = %q, %v", id, err)
	}
}

func TestRegistrationModel_Outcome(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := start
	m := newRegistrationModel("c0ffee42", func() time.Time { return now })

	now = start.Add(3500 * time.Millisecond)
	if v := m.View(); !strings.Contains(v, "c0ffee42") || !strings.Contains(v, "3s") {
		t.Fatalf("waiting view = %q, want serial and elapsed time", v)
	}

	_, cmd := m.Update(issuedMsg{id: "feedbeef"})
	if cmd == nil || !m.finished {
		t.Fatal("issued id should finish the display")
	}
	if v := m.View(); !strings.Contains(v, "registered") || strings.Contains(v, "unregistered") || !strings.Contains(v, "feedbeef") {
		t.Fatalf("registered view = %q", v)
	}

	failed := newRegistrationModel("", func() time.Time { return start })
	failed.Update(issuedMsg{err: errors.New("backend unreachable")})
	if v := failed.View(); !strings.Contains(v, "unregistered") || !strings.Contains(v, "unknown serial") || !strings.Contains(v, "backend unreachable") {
		t.Fatalf("failed view = %q", v)
	}
}

func TestRegistrationModel_CtrlCCancels(t *testing.T) {
	m := newRegistrationModel("c0ffee42", time.Now)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.cancelled || cmd == nil || m.View() != "" {
		t.Fatal("ctrl+c should cancel and clear the view")
	}
}
