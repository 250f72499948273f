package recipe

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives the routable key of a recipe from its title and id:
//
//	Slug("Nasi Goreng Spesial!", "12") // "nasi-goreng-spesial-12"
//
// Two records whose titles collapse to the same text and that share an id
// produce the same slug; callers fall back to id lookup.
func Slug(title, id string) string {
	s := nonSlugRe.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.TrimSuffix(strings.TrimPrefix(s, "-"), "-")
	return s + "-" + id
}

// RandomToken returns a 7-character lowercase alphanumeric token used as
// the id of records that carry neither id nor judul.
func RandomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
}
