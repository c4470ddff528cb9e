// Package crash records unhandled errors for later upload and inspection.
package crash

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MarkerFile is the crash report left for the next boot and the UI.
const MarkerFile = "error.txt"

// Stacker is implemented by errors that carry the stack they were raised on.
type Stacker interface {
	Stack() []byte
}

// Reporter writes crash reports tagged with the process-wide context.
type Reporter struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	tags map[string]string
}

func NewReporter(dir string) *Reporter {
	return &Reporter{dir: dir, now: time.Now, tags: make(map[string]string)}
}

// Bind adds tags attached to every later report.
func (r *Reporter) Bind(tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range tags {
		r.tags[k] = v
	}
}

// MarkerPath is the location of the crash marker.
func (r *Reporter) MarkerPath() string {
	return filepath.Join(r.dir, MarkerFile)
}

// ClearMarker removes a crash marker left by a previous run.
func (r *Reporter) ClearMarker() error {
	if err := os.Remove(r.MarkerPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove crash marker: %w", err)
	}
	return nil
}

// Capture logs err and writes it to the crash marker. Failing to write the
// report is logged, never returned: reporting must not mask the original error.
func (r *Reporter) Capture(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	tags := make(map[string]string, len(r.tags))
	for k, v := range r.tags {
		tags[k] = v
	}
	r.mu.Unlock()

	slog.Error("captured exception", "err", err, "tags", tags)

	report := r.format(err, tags)
	if mkErr := os.MkdirAll(r.dir, 0o755); mkErr != nil {
		slog.Warn("create crash dir", "err", mkErr)
		return
	}
	if wErr := os.WriteFile(r.MarkerPath(), []byte(report), 0o644); wErr != nil {
		slog.Warn("write crash report", "err", wErr)
	}
}

func (r *Reporter) format(err error, tags map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", r.now().UTC().Format(time.RFC3339), err)

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, tags[k])
	}

	var st Stacker
	if errors.As(err, &st) {
		b.WriteString("\n")
		b.Write(st.Stack())
	}
	return b.String()
}
