//go:build unix

package executor_test

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/t3bol90/csync/executor"
)

func TestSignalForwarding(t *testing.T) {
	// Keep the test process alive when it signals itself.
	guard := make(chan os.Signal, 1)
	signal.Notify(guard, syscall.SIGUSR1)
	defer signal.Stop(guard)

	done := make(chan *executor.Result, 1)
	go func() {
		cmd := executor.New("sleep", "10")
		result, _ := cmd.Execute(context.Background(),
			executor.WithSignalForwarding(syscall.SIGUSR1))
		done <- result
	}()

	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case result := <-done:
			if result.ExitCode == 0 {
				t.Errorf("expected the child to be terminated by the forwarded signal")
			}
			return
		case <-ticker.C:
			if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
				t.Fatalf("kill: %v", err)
			}
		case <-deadline:
			t.Fatal("child did not receive the forwarded signal")
		}
	}
}
