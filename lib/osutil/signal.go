package osutil

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a context that is cancelled on Ctrl+C or when the
// scheduler terminates the process, call stop once the run is over.
func SignalContext() (ctx context.Context, stop func()) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Exists reports whether a file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
