package crash

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

type stackErr struct{ error }

func (stackErr) Stack() []byte { return []byte("goroutine 1 [running]:\nmain.loop()") }

func TestCapture_WritesTaggedReport(t *testing.T) {
	r := NewReporter(t.TempDir())
	r.Bind(map[string]string{"dongle_id": "abc", "version": "0.9.4"})

	r.Capture(fmt.Errorf("tick: %w", stackErr{errors.New("boom")}))

	data, err := os.ReadFile(r.MarkerPath())
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	report := string(data)
	for _, want := range []string{"tick: boom", "dongle_id=abc", "version=0.9.4", "main.loop()"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestClearMarker(t *testing.T) {
	r := NewReporter(t.TempDir())
	if err := r.ClearMarker(); err != nil {
		t.Fatalf("ClearMarker without marker: %v", err)
	}

	r.Capture(errors.New("old crash"))
	if _, err := os.Stat(r.MarkerPath()); err != nil {
		t.Fatalf("marker not written: %v", err)
	}
	if err := r.ClearMarker(); err != nil {
		t.Fatalf("ClearMarker: %v", err)
	}
	if _, err := os.Stat(r.MarkerPath()); !os.IsNotExist(err) {
		t.Fatalf("marker still present: %v", err)
	}
}

func TestCapture_NilIsNoop(t *testing.T) {
	r := NewReporter(t.TempDir())
	r.Capture(nil)
	if _, err := os.Stat(r.MarkerPath()); !os.IsNotExist(err) {
		t.Fatal("nil error should not write a report")
	}
}
