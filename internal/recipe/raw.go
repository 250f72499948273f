package recipe

import (
	"strings"

	"resephub/pkg/models"
)

// Raw returns the upstream record of r: the retained source when there is
// one, else a record rebuilt from the normalized fields. Normalize(Raw(r))
// yields r again, apart from a random id.
func Raw(r models.Recipe) models.RawRecipe {
	if len(r.Source) > 0 {
		return r.Source
	}

	raw := models.RawRecipe{
		"id":      r.ID,
		"judul":   r.Title,
		"bahan":   strings.Join(r.Ingredients, "\n"),
		"langkah": strings.Join(r.Steps, "\n"),
	}
	setIf(raw, "deskripsi", r.Description)
	setIf(raw, "category_name", r.Category)
	setIf(raw, "image", r.Image)
	setIf(raw, "totalTime", r.TotalTime)
	setIf(raw, "servings", r.Servings)
	if r.CID != nil {
		raw["cid"] = *r.CID
	}
	return raw
}

// RawCategoryOf is the upstream record of c.
func RawCategoryOf(c models.Category) models.RawCategory {
	raw := models.RawCategory{"category_name": c.Name}
	if c.CID != nil {
		raw["cid"] = *c.CID
	}
	setIf(raw, "category_image", c.Image)
	return raw
}

func setIf(m map[string]any, key, v string) {
	if v != "" {
		m[key] = v
	}
}
