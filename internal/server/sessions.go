package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/joseph-ayodele/study-planner/constants"
	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/orchestrator"
)

// Factory builds a fresh orchestrator for a new session.
type Factory func(variant constants.Variant) *orchestrator.Orchestrator

type session struct {
	id       string
	orch     *orchestrator.Orchestrator
	lastSeen time.Time
}

// SessionStore keeps sessions in memory and drops idle ones.
type SessionStore struct {
	logger  *slog.Logger
	factory Factory
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewSessionStore(logger *slog.Logger, factory Factory, ttl time.Duration) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{
		logger:   logger,
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Create starts a session for variant and returns its id.
func (s *SessionStore) Create(variant constants.Variant) (string, *orchestrator.Orchestrator) {
	id := uuid.NewString()
	o := s.factory(variant)

	s.mu.Lock()
	s.sessions[id] = &session{id: id, orch: o, lastSeen: s.now()}
	n := len(s.sessions)
	s.mu.Unlock()

	s.logger.Info("server.session.created", "session_id", id, "variant", string(variant), "sessions", n)
	return id, o
}

// Get returns the session's orchestrator and marks it as used.
func (s *SessionStore) Get(id string) (*orchestrator.Orchestrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, common.NewAppError(common.CodeNotFound, fmt.Sprintf("session %s not found", id), common.ErrNotFound)
	}
	sess.lastSeen = s.now()
	return sess.orch, nil
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL. Sessions with a run
// in flight are kept.
func (s *SessionStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.After(cutoff) {
			continue
		}
		if sess.orch.Snapshot().State == constants.StateLoading {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	if removed > 0 {
		s.logger.Info("server.session.swept", "removed", removed, "remaining", len(s.sessions))
	}
	return removed
}

// StartSweeper runs Sweep on the cron schedule spec (e.g. "@every 5m")
// until the returned stop function is called.
func (s *SessionStore) StartSweeper(spec string) (func(context.Context), error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.Sweep() }); err != nil {
		return nil, fmt.Errorf("sweep schedule %q: %w", spec, err)
	}
	c.Start()
	s.logger.Info("server.sweeper.started", "schedule", spec, "ttl", s.ttl.String())
	return func(ctx context.Context) {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}, nil
}
