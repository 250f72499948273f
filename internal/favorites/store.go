// Package favorites keeps the set of recipe ids a visitor has marked.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"resephub/internal/storage"
	"resephub/pkg/logging"
)

// Namespace is the storage namespace holding one visitor's keys.
func Namespace(visitorID string) string {
	return "visitor:" + visitorID
}

// Store is a visitor's favorites set, written through to kv on every
// toggle.
type Store struct {
	mu  sync.Mutex
	kv  storage.KV
	ids map[string]struct{}
}

// Load reads the persisted set. Missing or malformed data gives an empty
// set.
func Load(ctx context.Context, kv storage.KV) *Store {
	s := &Store{kv: kv, ids: make(map[string]struct{})}

	b, err := kv.Get(ctx, storage.KeyFavorites)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.Warn().Str("component", "favorites").Err(err).Msg("read favorites")
		}
		return s
	}

	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		logging.Debug().Str("component", "favorites").Err(err).Msg("ignoring malformed favorites")
		return s
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s *Store) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Toggle flips membership of id and persists the whole set. It returns the
// new membership. On a write failure the change is rolled back.
func (s *Store) Toggle(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, was := s.ids[id]
	if was {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}

	if err := s.persist(ctx); err != nil {
		if was {
			s.ids[id] = struct{}{}
		} else {
			delete(s.ids, id)
		}
		return was, err
	}
	return !was, nil
}

// IDs returns the members in sorted order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted()
}

// Set returns a copy of the members for membership tests.
func (s *Store) Set() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.ids))
	for id := range s.ids {
		out[id] = true
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

func (s *Store) sorted() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Store) persist(ctx context.Context) error {
	b, err := json.Marshal(s.sorted())
	if err != nil {
		return fmt.Errorf("marshal favorites: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyFavorites, b); err != nil {
		return fmt.Errorf("save favorites: %w", err)
	}
	return nil
}
