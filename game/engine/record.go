package engine

import "sync"

// Storage persists the best score under HighScoreKey.
// LoadHighScore returns 0 when nothing usable is stored.
type Storage interface {
	LoadHighScore() int
	SaveHighScore(score int)
}

// RecordTracker holds the process-wide best score. It is shared by every
// session, so it is safe for concurrent use.
type RecordTracker struct {
	mu    sync.Mutex
	store Storage
	best  int
}

// NewRecordTracker loads the stored record once. A nil store keeps the record in memory.
func NewRecordTracker(store Storage) *RecordTracker {
	r := &RecordTracker{store: store}
	if store != nil {
		if best := store.LoadHighScore(); best > 0 {
			r.best = best
		}
	}
	return r
}

// Best returns the current record
func (r *RecordTracker) Best() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.best
}

// Submit raises the record to score if it is higher, persisting it immediately.
// It returns the resulting record and whether it changed.
func (r *RecordTracker) Submit(score int) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if score <= r.best {
		return r.best, false
	}
	r.best = score
	if r.store != nil {
		r.store.SaveHighScore(score)
	}
	return r.best, true
}
