// Package reload re-reads the configuration file while the gateway runs,
// either when the file changes on disk or on SIGHUP.
package reload

import (
	"context"
	"os"
	"sync"
	"time"
)

const defaultPollInterval = 5 * time.Second

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// ConfigPath is the file to watch.
	ConfigPath string

	// PollInterval defaults to 5 seconds.
	PollInterval time.Duration
}

// Event reports that the watched file changed.
type Event struct {
	ConfigPath string
}

// fileState is what the watcher compares between polls.
type fileState struct {
	modTime time.Time
	size    int64
}

func (s fileState) exists() bool { return !s.modTime.IsZero() }

// Watcher polls a file and emits an Event when its modification time or
// size changes. Events are coalesced: at most one is pending at a time.
type Watcher struct {
	cfg    WatcherConfig
	events chan Event

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewWatcher creates a watcher. Nothing is polled until Start.
func NewWatcher(cfg WatcherConfig) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Watcher{
		cfg:    cfg,
		events: make(chan Event, 1),
	}
}

// Events returns the channel change notifications are sent on.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins polling until ctx is done or Stop is called. Calls after
// the first are no-ops.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.stopped = make(chan struct{})
	initial := w.stat()
	go w.poll(ctx, initial)
}

// Stop ends polling and waits for the poll goroutine. It is safe to call
// before Start and more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, stopped := w.cancel, w.stopped
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

func (w *Watcher) poll(ctx context.Context, last fileState) {
	defer close(w.stopped)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		current := w.stat()
		// A missing file is usually an editor mid-save; wait for it to
		// come back rather than reloading a config that is not there.
		if !current.exists() || current == last {
			continue
		}
		last = current

		select {
		case w.events <- Event{ConfigPath: w.cfg.ConfigPath}:
		default:
		}
	}
}

func (w *Watcher) stat() fileState {
	info, err := os.Stat(w.cfg.ConfigPath)
	if err != nil {
		return fileState{}
	}
	return fileState{modTime: info.ModTime(), size: info.Size()}
}
