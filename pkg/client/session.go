package client

import (
	"context"
	"sync"
	"time"

	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/logger"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/models"
)

const (
	// DefaultPollInterval is the steady-state gap between polls.
	DefaultPollInterval = 3 * time.Second
	// DefaultMaxBackoff caps the retry delay after repeated failures.
	DefaultMaxBackoff = 30 * time.Second
)

// SessionOptions tune a poll session.
type SessionOptions struct {
	// Interval between polls; DefaultPollInterval when zero.
	Interval time.Duration
	// MaxBackoff caps the retry delay; DefaultMaxBackoff when zero.
	MaxBackoff time.Duration
	// OnUpdate is called with a fresh snapshot after every poll that
	// delivered changes, including the initial load.
	OnUpdate func(messages []models.Message)
	// OnInitialError is called when a poll fails before the first
	// successful load. Later failures are retried silently.
	OnInitialError func(err error)
}

// Session polls one event forum and keeps a reconciled View.
// At most one poll is in flight at a time: the next poll is scheduled
// only after the current one finishes, so slow responses skip ticks
// instead of stacking requests. Switching to another forum means
// closing this session and starting a new one; views are not shared.
type Session struct {
	client  *Client
	eventID string
	opts    SessionOptions

	mu   sync.Mutex
	view *View

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession prepares a session; it does not poll until Start.
func NewSession(c *Client, eventID string, opts SessionOptions) *Session {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}
	return &Session{
		client:  c,
		eventID: eventID,
		opts:    opts,
		view:    NewView(),
		done:    make(chan struct{}),
	}
}

// Start begins polling in the background. The first poll fires
// immediately.
func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
}

// Close stops polling and waits for the loop to exit. A response that
// arrives after Close is discarded.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

// Snapshot returns a copy of the current reconciled message list.
func (s *Session) Snapshot() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Messages()
}

// Cursor returns the session's current sync cursor.
func (s *Session) Cursor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Cursor()
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	timer := time.NewTimer(0)
	defer timer.Stop()
	failures := 0
	loaded := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		delta, err := s.client.Poll(ctx, s.eventID, s.Cursor())
		if ctx.Err() != nil {
			return
		}
		delay := s.opts.Interval
		if err != nil {
			failures++
			delay = backoff(s.opts.Interval, s.opts.MaxBackoff, failures)
			if !loaded && s.opts.OnInitialError != nil {
				s.opts.OnInitialError(err)
			}
			logger.Debug("forum poll failed", "event", s.eventID, "failures", failures, "retry_in", delay, "error", err)
		} else {
			failures = 0
			s.mu.Lock()
			s.view.Apply(delta)
			snap := s.view.Messages()
			s.mu.Unlock()
			if (len(delta.Messages) > 0 || !loaded) && s.opts.OnUpdate != nil {
				s.opts.OnUpdate(snap)
			}
			loaded = true
		}
		timer.Reset(delay)
	}
}

// backoff doubles the base delay per consecutive failure, capped at max.
func backoff(base, max time.Duration, failures int) time.Duration {
	d := base
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
