package pages

import (
	"resephub/internal/catalog"
	"resephub/internal/router"
)

// Request is everything a page depends on besides the catalog.
type Request struct {
	Route     router.Route
	Query     string
	Favorites map[string]bool
}

// Render dispatches req.Route to its builder. A recipe key that matches no
// slug or id renders the not-found page.
func (b Builder) Render(snap catalog.Snapshot, req Request) Page {
	switch req.Route.Kind {
	case router.KindCategories:
		return b.Categories(snap)
	case router.KindCategory:
		return b.CategoryRecipes(snap, req.Route)
	case router.KindSearch:
		return b.Search(snap, req.Query)
	case router.KindFavorites:
		return b.Favorites(snap, req.Favorites)
	case router.KindRecipe:
		r, ok := snap.Find(req.Route.Key)
		if !ok {
			return b.NotFound(snap)
		}
		return b.Detail(snap, r, req.Favorites[r.ID])
	default:
		return b.NotFound(snap)
	}
}
