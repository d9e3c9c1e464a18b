// Package debug gates per-module trace output behind the "debug"
// configuration directive, adapted from the teacher's file-backed
// Debugf/DebugDevf idiom: a single log file, module-tagged lines, and a
// mask check before formatting.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	logFile io.Writer
	enabled = map[string]bool{}
)

// Open points module trace output at path, truncating any existing
// file. Passing "" leaves tracing directed at nothing (the zero value:
// Debugf calls are no-ops regardless of Enable).
func Open(path string) error {
	if path == "" {
		return nil
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("debug: unable to create trace file %q: %w", path, err)
	}
	mu.Lock()
	logFile = file
	mu.Unlock()
	return nil
}

// Enable turns on tracing for the named module (e.g. "ppu", "spu",
// "kernel", "scheduler", "bridge", "runner"), per one entry of the
// config file's comma-separated "debug" directive.
func Enable(modules ...string) {
	mu.Lock()
	defer mu.Unlock()
	for _, m := range modules {
		enabled[m] = true
	}
}

// Enabled reports whether module's tracing is currently on.
func Enabled(module string) bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled[module]
}

// Debugf writes a trace line for module if it is enabled, a no-op
// otherwise (so call sites can unconditionally call this without an
// Enabled guard).
func Debugf(module, format string, args ...any) {
	mu.Lock()
	on, out := enabled[module], logFile
	mu.Unlock()
	if !on || out == nil {
		return
	}
	fmt.Fprintf(out, module+": "+format+"\n", args...)
}
