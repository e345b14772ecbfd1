// Package debug writes a flag-gated trace of mutation and UI activity to
// ~/.dealboard/debug.log. Without the flag every call is a no-op.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// logPath is swapped out in tests.
var logPath = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, ".dealboard", "debug.log"), nil
}

var (
	mu   sync.Mutex
	sink *os.File
)

// Init opens the trace file, truncating whatever the previous run left
// behind. With enable false the package stays silent.
func Init(enable bool) error {
	mu.Lock()
	defer mu.Unlock()

	if sink != nil {
		_ = sink.Close()
		sink = nil
	}
	if !enable {
		return nil
	}

	path, err := logPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	sink = f
	fmt.Fprintf(f, "%s dealboard trace started\n", time.Now().UTC().Format(time.RFC3339))
	return nil
}

// Logf records one formatted, timestamped line.
func Logf(format string, v ...any) {
	mu.Lock()
	defer mu.Unlock()
	if sink == nil {
		return
	}
	fmt.Fprintf(sink, time.Now().Format("15:04:05.000")+" "+format+"\n", v...)
}

// Close closes the trace file. Safe to call when the trace never opened.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if sink != nil {
		_ = sink.Close()
		sink = nil
	}
}
