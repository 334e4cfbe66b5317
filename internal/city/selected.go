// Package city holds the shared "selected city" state. Every feed reads it,
// and only the user-driven city selection writes it. Changes are pushed to
// subscribers synchronously, in subscription order.
package city

import (
	"sync"

	"github.com/i474232898/city-dashboard/internal/common"
)

// DefaultCity is used when no initial city is configured.
const DefaultCity = "Vancouver"

type subscriber struct {
	id int
	fn func(string)
}

// Selected is a concurrency-safe single-value register with change
// notification.
type Selected struct {
	mu     sync.Mutex
	value  string
	subs   []subscriber
	nextID int
}

// New creates a Selected holding initial, or DefaultCity when initial is blank.
func New(initial string) *Selected {
	return &Selected{value: common.DefaultIfBlank(initial, DefaultCity)}
}

// Get returns the current city.
func (s *Selected) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the current city and notifies subscribers before returning.
// Blank values and values equal to the current one are ignored; the return
// value reports whether a change happened.
func (s *Selected) Set(city string) bool {
	if common.IsBlank(city) {
		return false
	}

	s.mu.Lock()
	if s.value == city {
		s.mu.Unlock()
		return false
	}
	s.value = city
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	// Notify outside the lock so subscribers may call Get or Subscribe.
	for _, sub := range subs {
		sub.fn(city)
	}
	return true
}

// Subscribe registers fn for change notifications. The returned func removes
// the subscription and is safe to call more than once.
func (s *Selected) Subscribe(fn func(city string)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Selected) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
