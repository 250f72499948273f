// Package router maps URL fragments (and request paths) to page kinds.
package router

import (
	"net/url"
	"strconv"
	"strings"
)

type Kind string

const (
	KindCategories Kind = "categories"
	KindCategory   Kind = "category"
	KindSearch     Kind = "search"
	KindFavorites  Kind = "favorites"
	KindRecipe     Kind = "recipe"
	KindNotFound   Kind = "not_found"
)

// Route is a resolved location.
type Route struct {
	Kind Kind `json:"kind"`
	// CID is set for KindCategory. CIDValid is false when the segment does
	// not start with an integer; such a route matches no category.
	CID      int  `json:"cid,omitempty"`
	CIDValid bool `json:"-"`
	// Key is the slug or id of a KindRecipe route.
	Key string `json:"key,omitempty"`
}

// Resolve maps a fragment such as "#/category/3" to a Route.
func Resolve(fragment string) Route {
	if fragment == "" || fragment == "#" || fragment == "#/" {
		return Route{Kind: KindCategories}
	}

	switch {
	case strings.HasPrefix(fragment, "#/category/"):
		cid, ok := leadingInt(segment(fragment, 2))
		return Route{Kind: KindCategory, CID: cid, CIDValid: ok}
	case strings.HasPrefix(fragment, "#/search"):
		return Route{Kind: KindSearch}
	case strings.HasPrefix(fragment, "#/favorites"):
		return Route{Kind: KindFavorites}
	case strings.HasPrefix(fragment, "#/recipe/"):
		return Route{Kind: KindRecipe, Key: segment(fragment, 2)}
	default:
		return Route{Kind: KindNotFound}
	}
}

// FromPath resolves a decoded request path as if it were the fragment
// "#"+path.
func FromPath(path string) Route {
	if path == "" {
		path = "/"
	}
	return Resolve("#" + path)
}

// Fragment is the canonical "#/..." link for r.
func (r Route) Fragment() string {
	return "#" + r.Path()
}

// Path is the canonical request path for r.
func (r Route) Path() string {
	switch r.Kind {
	case KindCategories:
		return "/"
	case KindCategory:
		if !r.CIDValid {
			return "/category/-"
		}
		return "/category/" + strconv.Itoa(r.CID)
	case KindSearch:
		return "/search"
	case KindFavorites:
		return "/favorites"
	case KindRecipe:
		return "/recipe/" + url.PathEscape(r.Key)
	default:
		return "/404"
	}
}

// Category builds the route of one category page.
func Category(cid int) Route {
	return Route{Kind: KindCategory, CID: cid, CIDValid: true}
}

// Recipe builds the route of one detail page.
func Recipe(key string) Route {
	return Route{Kind: KindRecipe, Key: key}
}

// segment returns the i-th "/"-separated part of s, or "".
func segment(s string, i int) string {
	parts := strings.Split(s, "/")
	if i >= len(parts) {
		return ""
	}
	return parts[i]
}

// leadingInt parses an optionally signed run of leading digits after
// leading whitespace: "3abc" is 3, "abc" is not a number.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
