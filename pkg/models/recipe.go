package models

// RawRecipe is one record of the upstream recipe list as decoded from JSON.
// Fields are loosely typed and any of them may be missing:
//
//	{"id": 12, "judul": "...", "deskripsi": "...", "category_name": "...",
//	 "cid": 3, "image": "...", "bahan": "...", "langkah": "..."}
type RawRecipe map[string]any

// Recipe is the normalized, internal form of a recipe.
// It is created once per load and never mutated afterwards.
type Recipe struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CID         *int      `json:"cid"`
	Image       string    `json:"image"`
	Ingredients []string  `json:"ingredients"`
	Steps       []string  `json:"steps"`
	TotalTime   string    `json:"totalTime,omitempty"`
	Servings    string    `json:"servings,omitempty"`
	Source      RawRecipe `json:"source,omitempty"`
}

// InCategory reports whether the recipe belongs to category cid.
// A recipe without a cid belongs to no category.
func (r Recipe) InCategory(cid int) bool {
	return r.CID != nil && *r.CID == cid
}
