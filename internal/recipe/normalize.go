// Package recipe turns upstream records into the internal recipe and
// category models.
package recipe

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"resephub/pkg/models"
)

// UntitledTitle is used when a record carries neither judul nor title.
const UntitledTitle = "Tanpa Judul"

var (
	lineBreakRe        = regexp.MustCompile(`(?i)<br\s*/?>`)
	ingredientMarkerRe = regexp.MustCompile(`^[-\d.)\s]+`)
)

// Normalize maps one raw upstream record into a Recipe. It never fails:
// every field has a default.
func Normalize(raw models.RawRecipe) models.Recipe {
	id := stringify(raw["id"])
	if id == "" {
		id = text(raw["judul"])
	}
	if id == "" {
		id = RandomToken()
	}

	title := firstText(raw, "judul", "title")
	if title == "" {
		title = UntitledTitle
	}

	return models.Recipe{
		ID:          id,
		Title:       title,
		Slug:        Slug(title, id),
		Description: text(raw["deskripsi"]),
		Category:    firstText(raw, "category_name", "category"),
		CID:         CID(raw["cid"]),
		Image:       text(raw["image"]),
		Ingredients: ParseIngredients(block(raw["bahan"])),
		Steps:       ParseLines(block(raw["langkah"])),
		TotalTime:   stringify(raw["totalTime"]),
		Servings:    stringify(raw["servings"]),
		Source:      raw,
	}
}

// MapCategory maps one raw upstream category record.
func MapCategory(raw models.RawCategory) models.Category {
	return models.Category{
		CID:   CID(raw["cid"]),
		Name:  text(raw["category_name"]),
		Image: text(raw["category_image"]),
	}
}

// ParseLines splits a free-text block into trimmed, non-empty lines.
// <br> markup counts as a line break and carriage returns are dropped.
func ParseLines(s string) []string {
	s = lineBreakRe.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "\r", "")

	out := make([]string, 0)
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// ParseIngredients is ParseLines with leading bullet or number markers
// ("-", "1.", "2)") stripped from every line.
func ParseIngredients(s string) []string {
	lines := ParseLines(s)
	for i, line := range lines {
		lines[i] = strings.TrimSpace(ingredientMarkerRe.ReplaceAllString(line, ""))
	}
	return lines
}

// CID converts a category id. Only integral JSON numbers are ids; strings
// such as "3" are not, so they never equal a numeric category.
func CID(v any) *int {
	var n int
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return nil
		}
		n = int(x)
	case int:
		n = x
	case int64:
		n = int(x)
	default:
		return nil
	}
	return &n
}

func firstText(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := text(raw[k]); s != "" {
			return s
		}
	}
	return ""
}

// text returns v when it is a string and "" otherwise.
func text(v any) string {
	s, _ := v.(string)
	return s
}

// stringify renders truthy scalars; zero, false, "" and nil give "".
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if !x {
			return ""
		}
		return "true"
	case float64:
		if x == 0 || math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		if x == 0 {
			return ""
		}
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

// block accepts a text block or a list of lines.
func block(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}
