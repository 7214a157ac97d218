package api

import (
	"sync"

	"github.com/google/uuid"
)

// TranslationStore keeps finished translations in memory so they can be
// fetched or deleted by id.
type TranslationStore struct {
	mu    sync.Mutex
	items map[string]Translation
}

func NewTranslationStore() *TranslationStore {
	return &TranslationStore{
		items: make(map[string]Translation),
	}
}

func (s *TranslationStore) Save(t Translation) {
	s.mu.Lock()
	s.items[t.ID] = t
	s.mu.Unlock()
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
	return true
}

func (s *TranslationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func newTranslationID() string {
	return "tr_" + uuid.NewString()
}
