package session

import (
	"context"
	"sync"
	"time"

	"github.com/examgate/backend/internal/proctor"
	"github.com/rs/zerolog"
)

// StatusFeed is the external proctoring signal consumed by the monitor.
// *proctor.Client satisfies it.
type StatusFeed interface {
	Status(ctx context.Context) (proctor.Status, error)
}

// ProctorMonitor periodically polls the proctor feed while an attempt is
// active and derives an advisory alert flag. A failed poll retains the
// previous status: a transient network blip must not flip the UI into a
// false alert or crash the session.
type ProctorMonitor struct {
	feed  StatusFeed
	every time.Duration
	log   zerolog.Logger

	mu     sync.RWMutex
	status proctor.Status

	// onChange, when set, is invoked after every poll that changed the
	// status. Never invoked concurrently with itself.
	onChange func(status proctor.Status, alert bool)
}

// NewProctorMonitor creates a monitor polling feed at the given interval.
func NewProctorMonitor(feed StatusFeed, every time.Duration, log zerolog.Logger) *ProctorMonitor {
	return &ProctorMonitor{
		feed:   feed,
		every:  every,
		status: proctor.StatusSafe,
		log:    log.With().Str("component", "proctor_monitor").Logger(),
	}
}

// OnChange registers a callback fired when the status changes. Must be
// called before Run.
func (m *ProctorMonitor) OnChange(fn func(status proctor.Status, alert bool)) {
	m.onChange = fn
}

// Run polls until the context is cancelled. Call in a goroutine; the
// attempt's teardown cancels the context so no poll outlives the session.
func (m *ProctorMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll performs a single poll. Errors are swallowed after a debug log;
// the stored status stays stale until the next successful poll.
func (m *ProctorMonitor) Poll(ctx context.Context) {
	status, err := m.feed.Status(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.log.Debug().Err(err).Msg("Proctor poll failed, keeping previous status")
		}
		return
	}

	m.mu.Lock()
	changed := status != m.status
	m.status = status
	m.mu.Unlock()

	if changed && m.onChange != nil {
		m.onChange(status, status.Alert())
	}
}

// State returns the last known status and whether an alert is active.
func (m *ProctorMonitor) State() (proctor.Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status, m.status.Alert()
}
