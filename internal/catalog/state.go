// Package catalog owns the in-memory recipes and categories of the process.
package catalog

import (
	"strings"
	"sync"
	"time"

	"resephub/pkg/models"
)

type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseOffline Phase = "offline"
)

// Status is what the loading indicator shows.
type Status struct {
	Phase     Phase     `json:"phase"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State is the process-wide catalog. Recipes and categories are replaced
// wholesale; readers work on an immutable Snapshot.
type State struct {
	mu     sync.RWMutex
	snap   Snapshot
	loaded bool
}

func NewState() *State {
	return &State{snap: Snapshot{
		Recipes:    []models.Recipe{},
		Categories: []models.Category{},
	}}
}

// Replace swaps both collections in one step. A nil slice keeps the
// current value of that collection.
func (s *State) Replace(recipes []models.Recipe, categories []models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if recipes != nil {
		s.snap.Recipes = recipes
	}
	if categories != nil {
		s.snap.Categories = categories
	}
}

func (s *State) SetStatus(phase Phase, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Status = Status{Phase: phase, Message: message, UpdatedAt: time.Now().UTC()}
	if phase == PhaseReady || phase == PhaseOffline {
		s.loaded = true
	}
}

// Loaded reports whether any load has finished. Later refreshes passing
// through PhaseLoading do not reset it.
func (s *State) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Snapshot is a read-only view of the catalog. The slices it holds are
// never mutated after publication.
type Snapshot struct {
	Recipes    []models.Recipe   `json:"recipes"`
	Categories []models.Category `json:"categories"`
	Status     Status            `json:"status"`
}

// Category returns the first category with the given cid.
func (s Snapshot) Category(cid int) (models.Category, bool) {
	for _, c := range s.Categories {
		if c.Is(cid) {
			return c, true
		}
	}
	return models.Category{}, false
}

// CategoryOf resolves the category of a recipe by cid.
func (s Snapshot) CategoryOf(r models.Recipe) (models.Category, bool) {
	if r.CID == nil {
		return models.Category{}, false
	}
	return s.Category(*r.CID)
}

// InCategory returns the recipes whose cid equals cid, in catalog order.
func (s Snapshot) InCategory(cid int) []models.Recipe {
	out := make([]models.Recipe, 0)
	for _, r := range s.Recipes {
		if r.InCategory(cid) {
			out = append(out, r)
		}
	}
	return out
}

// Find looks a recipe up by slug first, then by id.
func (s Snapshot) Find(key string) (models.Recipe, bool) {
	for _, r := range s.Recipes {
		if r.Slug == key || r.ID == key {
			return r, true
		}
	}
	return models.Recipe{}, false
}

// Search does a case-insensitive substring match of q against the title,
// category name and ingredient lines of every recipe. An empty query
// matches nothing.
func (s Snapshot) Search(q string) []models.Recipe {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]models.Recipe, 0)
	if q == "" {
		return out
	}
	for _, r := range s.Recipes {
		if strings.Contains(haystack(r), q) {
			out = append(out, r)
		}
	}
	return out
}

// Filter returns the recipes for which keep reports true, in catalog order.
func (s Snapshot) Filter(keep func(models.Recipe) bool) []models.Recipe {
	out := make([]models.Recipe, 0)
	for _, r := range s.Recipes {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func haystack(r models.Recipe) string {
	return strings.ToLower(r.Title + " " + r.Category + " " + strings.Join(r.Ingredients, " "))
}
