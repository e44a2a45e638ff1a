package memory

import "sync"

// SessionRepo holds the per-user "awaiting channel input" marker. It lives
// only as long as the process.
type SessionRepo struct {
	mu       sync.Mutex
	awaiting map[int64]struct{}
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{awaiting: make(map[int64]struct{})}
}

func (r *SessionRepo) SetAwaiting(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.awaiting[userID] = struct{}{}
}

// ConsumeAwaiting reports whether the marker was set and clears it.
func (r *SessionRepo) ConsumeAwaiting(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.awaiting[userID]
	delete(r.awaiting, userID)
	return ok
}
