package form

import "sync"

// Set keeps one form per key, creating forms on first use.
type Set[K comparable, In, Out any] struct {
	newForm func(K) *Form[In, Out]

	mu    sync.Mutex
	forms map[K]*Form[In, Out]
}

// NewSet creates a set whose forms are built by newForm.
func NewSet[K comparable, In, Out any](newForm func(K) *Form[In, Out]) *Set[K, In, Out] {
	return &Set[K, In, Out]{newForm: newForm, forms: make(map[K]*Form[In, Out])}
}

// Get returns the form for key, creating it if needed.
func (s *Set[K, In, Out]) Get(key K) *Form[In, Out] {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[key]
	if !ok {
		f = s.newForm(key)
		s.forms[key] = f
	}
	return f
}

// Lookup returns the form for key without creating one.
func (s *Set[K, In, Out]) Lookup(key K) (*Form[In, Out], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[key]
	return f, ok
}

// Len returns the number of forms.
func (s *Set[K, In, Out]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forms)
}
