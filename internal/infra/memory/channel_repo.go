package memory

import (
	"sync"

	"channel-signature-bot/internal/domain"
)

// ChannelRepo is a non-persistent ChannelRepository.
type ChannelRepo struct {
	mu    sync.RWMutex
	order []string
	names map[string]string
}

func NewChannelRepo() *ChannelRepo {
	return &ChannelRepo{names: make(map[string]string)}
}

func (r *ChannelRepo) Add(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.names[id]; !ok {
		r.order = append(r.order, id)
	}
	r.names[id] = name
	return nil
}

func (r *ChannelRepo) Remove(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.names[id]; !ok {
		return false, nil
	}
	delete(r.names, id)
	for i, k := range r.order {
		if k == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *ChannelRepo) Get(id string) (domain.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[id]
	return domain.Channel{ID: id, Name: name}, ok
}

func (r *ChannelRepo) List() []domain.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]domain.Channel, 0, len(r.order))
	for _, id := range r.order {
		res = append(res, domain.Channel{ID: id, Name: r.names[id]})
	}
	return res
}

func (r *ChannelRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
