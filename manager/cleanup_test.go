package manager

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"pilotmgr/process"
)

func TestCleanup_TwoPhase(t *testing.T) {
	for _, n := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("%d workers", n), func(t *testing.T) {
			var events eventLog
			workers := make([]process.Worker, n)
			var want []string
			for i := range n {
				w := &fakeWorker{name: fmt.Sprintf("w%d", i), alive: true, events: &events}
				workers[i] = w
				want = append(want, "Stop:"+w.name)
			}
			for i := range n {
				want = append(want, fmt.Sprintf("StopBlock:w%d", i))
			}

			Cleanup(workers)

			if !slices.Equal([]string(events), want) {
				t.Fatalf("stop order = %v, want %v", events, want)
			}
			for _, w := range workers {
				if w.IsAlive() {
					t.Fatalf("%s alive after Cleanup", w.Name())
				}
			}
		})
	}
}

func TestCleanup_SlowWorkerDoesNotDelaySignals(t *testing.T) {
	var events eventLog
	workers := []process.Worker{
		&fakeWorker{name: "loggerd", alive: true, events: &events, stopDelay: 50 * time.Millisecond},
		&fakeWorker{name: "thermald", alive: true, events: &events},
		&fakeWorker{name: "camerad", alive: true, events: &events},
	}

	Cleanup(workers)

	firstBlock := slices.IndexFunc(events, func(e string) bool { return strings.HasPrefix(e, "StopBlock:") })
	if firstBlock != len(workers) {
		t.Fatalf("stop order = %v, want every worker signalled before any blocking stop", events)
	}
	for _, e := range events[:firstBlock] {
		if !strings.HasPrefix(e, "Stop:") {
			t.Fatalf("stop order = %v", events)
		}
	}
	for _, w := range workers {
		if w.IsAlive() {
			t.Fatalf("%s alive after Cleanup", w.Name())
		}
	}
}
