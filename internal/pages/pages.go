// Package pages builds the view model of every page kind from a catalog
// snapshot. Builders never touch the network and never mutate state.
package pages

import (
	"net/http"
	"strconv"
	"strings"

	"resephub/internal/catalog"
	"resephub/internal/router"
	"resephub/pkg/models"
)

const (
	NoCategories     = "Tidak ada kategori"
	NoCategoryRecipe = "Tidak ada resep di kategori ini"
	NoResults        = "Tidak ada hasil"
	NoFavorites      = "Belum ada favorit"
	NotFoundTitle    = "Halaman tidak ditemukan"

	CategoryFallback = "Kategori"
	FavoriteOn       = "♥ Di Favoritkan"
	FavoriteOff      = "♡ Tambah Favorit"
)

// Page is the structured description of one rendered page.
type Page struct {
	Kind       router.Kind    `json:"kind"`
	Title      string         `json:"title"`
	Status     catalog.Status `json:"status"`
	HTTPStatus int            `json:"-"`
	Back       string         `json:"back,omitempty"`

	CategoryGrid *CategoryGrid  `json:"category_grid,omitempty"`
	RecipeList   *RecipeList    `json:"recipe_list,omitempty"`
	Search       *SearchResults `json:"search,omitempty"`
	Detail       *Detail        `json:"detail,omitempty"`
}

type CategoryCard struct {
	CID   *int   `json:"cid"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Link  string `json:"link"`
}

type CategoryGrid struct {
	Cards       []CategoryCard `json:"cards"`
	Placeholder string         `json:"placeholder,omitempty"`
}

type RecipeCard struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Image string `json:"image,omitempty"`
	Meta  string `json:"meta"`
	Link  string `json:"link"`
}

type RecipeList struct {
	Cards       []RecipeCard `json:"cards"`
	Placeholder string       `json:"placeholder,omitempty"`
}

type SearchResults struct {
	Query       string       `json:"query"`
	Cards       []RecipeCard `json:"cards"`
	Placeholder string       `json:"placeholder,omitempty"`
}

type Share struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

type Detail struct {
	ID            string   `json:"id"`
	Slug          string   `json:"slug"`
	Category      string   `json:"category"`
	Time          string   `json:"time,omitempty"`
	Servings      string   `json:"servings,omitempty"`
	Description   string   `json:"description,omitempty"`
	Image         string   `json:"image,omitempty"`
	Ingredients   []string `json:"ingredients"`
	Steps         []string `json:"steps"`
	Favorite      bool     `json:"favorite"`
	FavoriteLabel string   `json:"favorite_label"`
	ToggleAction  string   `json:"toggle_action"`
	Share         Share    `json:"share"`
}

// Builder carries the request-independent settings of the renderers.
type Builder struct {
	// Media rewrites an image URL, e.g. through the media proxy. Nil keeps
	// URLs as they are.
	Media func(src string) string
	// BaseURL prefixes share links. Empty gives root-relative links.
	BaseURL string
}

func (b Builder) page(snap catalog.Snapshot, kind router.Kind, title string) Page {
	return Page{Kind: kind, Title: title, Status: snap.Status, HTTPStatus: http.StatusOK}
}

func (b Builder) media(src string) string {
	if src == "" || b.Media == nil {
		return src
	}
	return b.Media(src)
}

// Categories renders the category grid.
func (b Builder) Categories(snap catalog.Snapshot) Page {
	p := b.page(snap, router.KindCategories, "Kategori Resep")
	grid := &CategoryGrid{Cards: make([]CategoryCard, 0, len(snap.Categories))}
	for _, c := range snap.Categories {
		grid.Cards = append(grid.Cards, CategoryCard{
			CID:   c.CID,
			Name:  c.Name,
			Image: b.media(c.Image),
			Link:  categoryRoute(c).Path(),
		})
	}
	if len(grid.Cards) == 0 {
		grid.Placeholder = NoCategories
	}
	p.CategoryGrid = grid
	return p
}

// CategoryRecipes renders the recipes of the category named by route.
func (b Builder) CategoryRecipes(snap catalog.Snapshot, route router.Route) Page {
	title := CategoryFallback
	recipes := []models.Recipe{}
	if route.CIDValid {
		if c, ok := snap.Category(route.CID); ok {
			title = c.Name
		}
		recipes = snap.InCategory(route.CID)
	}

	p := b.page(snap, router.KindCategory, title)
	p.Back = router.Route{Kind: router.KindCategories}.Path()
	p.RecipeList = b.list(recipes, NoCategoryRecipe)
	return p
}

// Search renders the results of query. An empty query shows nothing, not
// everything.
func (b Builder) Search(snap catalog.Snapshot, query string) Page {
	p := b.page(snap, router.KindSearch, "Cari Resep")
	res := &SearchResults{Query: query, Cards: []RecipeCard{}}
	if strings.TrimSpace(query) != "" {
		found := snap.Search(query)
		res.Cards = b.cards(found)
		if len(found) == 0 {
			res.Placeholder = NoResults
		}
	}
	p.Search = res
	return p
}

// Favorites renders the favorite recipes in catalog order.
func (b Builder) Favorites(snap catalog.Snapshot, favorites map[string]bool) Page {
	p := b.page(snap, router.KindFavorites, "Favorit")
	p.RecipeList = b.list(snap.Filter(func(r models.Recipe) bool { return favorites[r.ID] }), NoFavorites)
	return p
}

// Detail renders one recipe.
func (b Builder) Detail(snap catalog.Snapshot, r models.Recipe, favorite bool) Page {
	p := b.page(snap, router.KindRecipe, r.Title)
	p.Back = router.Route{Kind: router.KindCategories}.Path()

	category := r.Category
	if c, ok := snap.CategoryOf(r); ok {
		category = c.Name
	}
	servings := ""
	if r.Servings != "" {
		servings = r.Servings + " porsi"
	}
	label := FavoriteOff
	if favorite {
		label = FavoriteOn
	}
	link := router.Recipe(r.Slug).Path()

	p.Detail = &Detail{
		ID:            r.ID,
		Slug:          r.Slug,
		Category:      category,
		Time:          r.TotalTime,
		Servings:      servings,
		Description:   r.Description,
		Image:         b.media(r.Image),
		Ingredients:   nonNil(r.Ingredients),
		Steps:         nonNil(r.Steps),
		Favorite:      favorite,
		FavoriteLabel: label,
		ToggleAction:  link + "/favorite",
		Share: Share{
			Title: r.Title,
			Text:  r.Description,
			URL:   strings.TrimRight(b.BaseURL, "/") + link,
		},
	}
	return p
}

// NotFound renders the not-found page.
func (b Builder) NotFound(snap catalog.Snapshot) Page {
	p := b.page(snap, router.KindNotFound, NotFoundTitle)
	p.HTTPStatus = http.StatusNotFound
	return p
}

// Card is the list entry of one recipe.
func (b Builder) Card(r models.Recipe) RecipeCard {
	meta := strconv.Itoa(len(r.Steps)) + " langkah"
	if r.Category != "" {
		meta = r.Category + " • " + meta
	}
	return RecipeCard{
		ID:    r.ID,
		Title: r.Title,
		Image: b.media(r.Image),
		Meta:  meta,
		Link:  router.Recipe(r.Slug).Path(),
	}
}

func (b Builder) cards(recipes []models.Recipe) []RecipeCard {
	out := make([]RecipeCard, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, b.Card(r))
	}
	return out
}

func (b Builder) list(recipes []models.Recipe, placeholder string) *RecipeList {
	l := &RecipeList{Cards: b.cards(recipes)}
	if len(l.Cards) == 0 {
		l.Placeholder = placeholder
	}
	return l
}

func categoryRoute(c models.Category) router.Route {
	if c.CID == nil {
		return router.Route{Kind: router.KindCategory}
	}
	return router.Category(*c.CID)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
