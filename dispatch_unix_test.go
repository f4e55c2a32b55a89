//go:build unix

package peers

import (
	"context"
	"os"
	"syscall"
	"testing"
)

func TestSignalInterruptsCommand(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	h := newHarness(&fakeCommand{run: func(context.Context, *Env, []string) error {
		close(started)
		<-release
		return nil
	}})
	h.d.Signals = []os.Signal{syscall.SIGUSR1}

	go func() {
		<-started
		if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
			t.Errorf("kill: %v", err)
		}
	}()
	if code := h.d.Main(context.Background(), []string{"echo"}); code != 1 {
		t.Fatalf("exit status %d, want 1", code)
	}
	if got := h.stderr.String(); got != "Cancelled by user\n" {
		t.Fatalf("stderr %q", got)
	}
}
