package api

import (
	"sync"
)

// DefaultStoreCapacity bounds how many translations the server keeps.
const DefaultStoreCapacity = 1024

// TranslationStore keeps recent translations in memory, evicting the oldest
// once the capacity is reached.
type TranslationStore struct {
	mu       sync.Mutex
	capacity int
	items    map[string]Translation
	order    []string
}

func NewTranslationStore(capacity int) *TranslationStore {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &TranslationStore{
		capacity: capacity,
		items:    make(map[string]Translation),
	}
}

func (s *TranslationStore) Put(t Translation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.items[t.ID] = t
	for len(s.items) > s.capacity && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.items, oldest)
	}
}

func (s *TranslationStore) Get(id string) (Translation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	return t, ok
}

func (s *TranslationStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *TranslationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
