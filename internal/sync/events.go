package sync

import "time"

const (
	TypeCatalogRefresh = "catalog.refresh"
	TypeFavoriteUpdate = "favorites.update"
)

type CatalogEvent struct {
	Type       string    `json:"type"` // "catalog.refresh"
	Phase      string    `json:"phase"`
	Message    string    `json:"message,omitempty"`
	Recipes    int       `json:"recipes"`
	Categories int       `json:"categories"`
	At         time.Time `json:"at"`
}

type FavoriteEvent struct {
	Type     string    `json:"type"` // "favorites.update"
	RecipeID string    `json:"recipe_id"`
	Favorite bool      `json:"favorite"`
	At       time.Time `json:"at"`
}
