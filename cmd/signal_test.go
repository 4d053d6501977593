package cmd

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatchSignals(t *testing.T) {
	tests := []struct {
		name      string
		signals   int
		cancelled bool
		exitCode  int
	}{
		{"stopped before any signal", 0, false, -1},
		{"stopped after one signal", 1, true, -1},
		{"second signal exits", 2, true, 130},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sigChan := make(chan os.Signal, 2)
			done := make(chan struct{})
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exitCode := -1
			exit := func(code int) { exitCode = code }

			returned := make(chan struct{})
			go func() {
				watchSignals(sigChan, done, cancel, exit)
				close(returned)
			}()

			for i := 0; i < tt.signals; i++ {
				sigChan <- os.Interrupt
			}
			if tt.cancelled {
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
					t.Fatal("context not cancelled")
				}
			}
			if tt.signals < 2 {
				close(done)
			}

			select {
			case <-returned:
			case <-time.After(time.Second):
				t.Fatal("watchSignals did not return")
			}
			if exitCode != tt.exitCode {
				t.Errorf("exit code = %d, want %d", exitCode, tt.exitCode)
			}
			if !tt.cancelled && ctx.Err() != nil {
				t.Error("context cancelled without a signal")
			}
		})
	}
}
