package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Gauge records the number of live sessions
type Gauge interface {
	SetActiveSessions(n int)
}

// Registry holds the live sessions and evicts idle ones
type Registry struct {
	deps   *Dependencies
	ttl    time.Duration
	gauge  Gauge
	logger *logrus.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry. Sessions unused for ttl are evicted
// by Sweep.
func NewRegistry(deps *Dependencies, ttl time.Duration, gauge Gauge) *Registry {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Registry{
		deps:     deps,
		ttl:      ttl,
		gauge:    gauge,
		logger:   deps.Logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Acquire returns the session with id, creating a new one under a fresh id
// when id is empty or unknown. The second result reports creation.
func (r *Registry) Acquire(id string) (*Session, bool) {
	now := r.now()

	r.mu.Lock()
	if sess, ok := r.sessions[id]; ok && id != "" {
		r.mu.Unlock()
		sess.Touch(now)
		return sess, false
	}

	sess := r.deps.New(uuid.NewString())
	sess.Touch(now)
	r.sessions[sess.ID] = sess
	n := len(r.sessions)
	r.mu.Unlock()

	sess.Init()
	r.report(n)
	return sess, true
}

// Get returns a live session without creating one
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Remove tears down the session with id
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	if ok {
		sess.Teardown()
		r.report(n)
	}
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var idle []*Session
	for id, sess := range r.sessions {
		if sess.LastSeen().Before(cutoff) {
			idle = append(idle, sess)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, sess := range idle {
		sess.Teardown()
	}
	if len(idle) > 0 {
		r.logger.WithFields(logrus.Fields{
			"evicted": len(idle),
			"active":  n,
		}).Debug("Evicted idle sessions")
	}
	r.report(n)
	return len(idle)
}

// Run sweeps every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close tears down every session
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		all = append(all, sess)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, sess := range all {
		sess.Teardown()
	}
	r.report(0)
}

func (r *Registry) report(n int) {
	if r.gauge != nil {
		r.gauge.SetActiveSessions(n)
	}
}
