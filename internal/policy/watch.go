package policy

import (
	"context"
	"os"
	"time"
)

// Watcher polls the modification times of a fixed set of policy files.
// Missing files are tracked too, so creating or removing one counts as a
// change.
type Watcher struct {
	paths    []string
	interval time.Duration
	mtimes   map[string]time.Time // zero: absent
}

// NewWatcher records the current state of paths.
func NewWatcher(paths []string, interval time.Duration) *Watcher {
	w := &Watcher{
		paths:    paths,
		interval: interval,
		mtimes:   make(map[string]time.Time, len(paths)),
	}
	w.poll()
	return w
}

// Run calls onChange for every path that changed since the previous poll,
// once per interval, until ctx is done. It always returns nil.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, p := range w.poll() {
				onChange(p)
			}
		}
	}
}

func (w *Watcher) poll() []string {
	var changed []string
	for _, p := range w.paths {
		var mt time.Time
		if fi, err := os.Stat(p); err == nil {
			mt = fi.ModTime()
		}
		last, seen := w.mtimes[p]
		w.mtimes[p] = mt
		if seen && !mt.Equal(last) {
			changed = append(changed, p)
		}
	}
	return changed
}
