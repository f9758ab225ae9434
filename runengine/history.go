package runengine

import (
	"sync"

	"github.com/formulab-api/models"
)

// History holds completed run records of this process, newest first.
// Safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	records []models.RunRecord
}

// NewHistory creates an empty history
func NewHistory() *History {
	return &History{}
}

// Append puts a record at the front of the history
func (h *History) Append(record models.RunRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append([]models.RunRecord{record}, h.records...)
}

// List returns a snapshot of the history, newest first
func (h *History) List() []models.RunRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.RunRecord, len(h.records))
	copy(out, h.records)
	return out
}
