package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pilotmgr/manager"
)

func TestFinish(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	live := context.Background()

	loopErr := &manager.LoopError{Err: errors.New("transition to onroad: disk I/O error")}
	interrupted := &manager.LoopError{Err: fmt.Errorf("lifecycle loop: %w", context.Canceled)}
	serveErr := errors.Join(interrupted, errors.New("serve: listen unix: bind: invalid argument"))

	testCases := []struct {
		name      string
		ctx       context.Context
		err       error
		wantErr   bool
		recovered bool
	}{
		{name: "clean exit", ctx: live},
		{name: "signal", ctx: cancelled, err: interrupted},
		{name: "loop failure", ctx: live, err: loopErr, wantErr: true},
		{name: "panic", ctx: live, err: &manager.LoopError{Err: &manager.RuntimeError{Value: "boom"}}, wantErr: true},
		{name: "bootstrap failure", ctx: live, err: &manager.BootstrapError{Kind: manager.KindClockSync}, wantErr: true, recovered: true},
		{name: "server failure", ctx: live, err: errors.New("serve: bind: invalid argument"), wantErr: true, recovered: true},
		{name: "server failure with loop cancellation", ctx: live, err: serveErr, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			recovered := false
			err := finish(tc.ctx, tc.err, func(err error) error {
				recovered = true
				return err
			})
			if (err != nil) != tc.wantErr {
				t.Fatalf("finish() error = %v, want error %v", err, tc.wantErr)
			}
			if recovered != tc.recovered {
				t.Fatalf("recovery ran = %v, want %v", recovered, tc.recovered)
			}
		})
	}
}
