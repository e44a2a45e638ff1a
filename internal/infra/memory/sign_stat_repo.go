package memory

import (
	"sync"
	"time"

	"channel-signature-bot/internal/domain"
)

type SignStatRepo struct {
	mu     sync.RWMutex
	events []domain.SignEvent
}

func NewSignStatRepo() *SignStatRepo {
	return &SignStatRepo{events: make([]domain.SignEvent, 0, 32)}
}

func (r *SignStatRepo) Save(ev domain.SignEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *SignStatRepo) Counts() (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int)
	for _, ev := range r.events {
		if ev.Outcome == domain.SignSigned {
			out[ev.ChannelID]++
		}
	}
	return out, nil
}
