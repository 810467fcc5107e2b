// Package monitoring routes unexpected failures (panicking commands, failed
// sinks) to an error tracker. The default is a no-op; the service installs
// Sentry or a logging monitor at startup.
package monitoring

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/factorysim/core/logger"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

// LogMonitor writes captured errors to a logger at error level.
type LogMonitor struct {
	Log logger.Logger
}

func (m LogMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	logger.OrNop(m.Log).Errorf("captured: %v%s", err, formatTags(tags))
}

// Recover logs a panic and re-panics so the process still fails loudly.
func (m LogMonitor) Recover() {
	if r := recover(); r != nil {
		logger.OrNop(m.Log).Errorf("panic: %v", r)
		panic(r)
	}
}

func (LogMonitor) Flush(time.Duration) {}

func formatTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, tags[k])
	}
	return b.String()
}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation. nil is ignored.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

// Current returns the installed monitor.
func Current() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	Current().CaptureException(err, tags)
}

// Recover captures panics in goroutines. It must be deferred directly.
func Recover() {
	if r := recover(); r != nil {
		CaptureException(fmt.Errorf("panic: %v", r), nil)
		Flush(2 * time.Second)
		panic(r)
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	Current().Flush(d)
}
