package runengine

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// SessionStore persists run sessions. The memory store serves a single
// instance; the redis store lets several API instances share sessions.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]*Session, error)
	ListByOperator(ctx context.Context, operatorID string) ([]*Session, error)
	// Lock takes the exclusive lock named key, shared with every other user
	// of the same backing store. It waits until the lock is free or ctx ends.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

var _ SessionStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory session store. Sessions are copied on the way
// in and out. Safe for concurrent access.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      *zap.Logger

	lockMu sync.Mutex
	locks  map[string]chan struct{}
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore(log *zap.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		log:      log,
		locks:    make(map[string]chan struct{}),
	}
}

// Save persists a session, overwriting any previous version
func (s *MemoryStore) Save(ctx context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("saving run session", zap.String("session_id", session.ID), zap.String("state", string(session.State)))
	s.sessions[session.ID] = session.Clone()
	return nil
}

// Load retrieves a session by id
func (s *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return sess.Clone(), nil
}

// Delete removes a session by id
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrRunNotFound
	}
	delete(s.sessions, id)
	return nil
}

// ListActive returns all running sessions
func (s *MemoryStore) ListActive(ctx context.Context) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Session
	for _, sess := range s.sessions {
		if sess.State == StateRunning {
			out = append(out, sess.Clone())
		}
	}
	return out, nil
}

// ListByOperator returns every stored session of an operator
func (s *MemoryStore) ListByOperator(ctx context.Context, operatorID string) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Session
	for _, sess := range s.sessions {
		if sess.OperatorID == operatorID {
			out = append(out, sess.Clone())
		}
	}
	return out, nil
}

// Lock takes a named lock. A held lock is a channel closed on release.
func (s *MemoryStore) Lock(ctx context.Context, key string) (func(), error) {
	for {
		s.lockMu.Lock()
		held, busy := s.locks[key]
		if !busy {
			released := make(chan struct{})
			s.locks[key] = released
			s.lockMu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					s.lockMu.Lock()
					delete(s.locks, key)
					s.lockMu.Unlock()
					close(released)
				})
			}, nil
		}
		s.lockMu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
