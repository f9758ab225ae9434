package recipe

import (
	"sync"
)

type draftKey struct {
	userID    string
	projectID string
}

// DraftStore keeps one open draft per (user, project). Safe for concurrent use.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[draftKey]*Draft
}

// NewDraftStore creates an empty draft store
func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[draftKey]*Draft)}
}

// Open returns the user's existing draft for the project, or stores the one
// built by create
func (s *DraftStore) Open(userID, projectID string, create func() *Draft) *Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := draftKey{userID, projectID}
	if d, ok := s.drafts[key]; ok {
		return d
	}
	d := create()
	s.drafts[key] = d
	return d
}

// Update runs fn on the user's draft while holding the store lock
func (s *DraftStore) Update(userID, projectID string, fn func(*Draft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[draftKey{userID, projectID}]
	if !ok {
		return ErrDraftNotFound
	}
	return fn(d)
}

// Discard drops the user's draft. Returns false if there was none.
func (s *DraftStore) Discard(userID, projectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := draftKey{userID, projectID}
	if _, ok := s.drafts[key]; !ok {
		return false
	}
	delete(s.drafts, key)
	return true
}

// DiscardProject drops every user's draft of a project
func (s *DraftStore) DiscardProject(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.drafts {
		if key.projectID == projectID {
			delete(s.drafts, key)
		}
	}
}
