package receiver

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps submissions in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	submissions map[string]*Submission
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{submissions: make(map[string]*Submission)}
}

func (m *MemoryStore) Save(_ context.Context, sub *Submission) error {
	if err := validate(sub); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.submissions[sub.ID] = sub
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.submissions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sub, nil
}

// List returns the submissions of formID, oldest first.
func (m *MemoryStore) List(_ context.Context, formID string) ([]*Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Submission, 0)
	for _, sub := range m.submissions {
		if sub.FormID == formID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
