package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resephub/internal/recipe"
	"resephub/pkg/models"
)

func fixture() ([]models.Recipe, []models.Category) {
	recipes := []models.Recipe{
		recipe.Normalize(models.RawRecipe{"id": float64(1), "judul": "Sayur Asem", "category_name": "Sayur", "cid": float64(3), "bahan": "Asam jawa\nKacang panjang"}),
		recipe.Normalize(models.RawRecipe{"id": float64(2), "judul": "Ayam Goreng", "category_name": "Ayam", "cid": float64(1), "bahan": "Ayam\nGaram"}),
		recipe.Normalize(models.RawRecipe{"id": float64(3), "judul": "Tumis Kangkung", "category_name": "Sayur", "cid": float64(3), "bahan": "Kangkung\nBawang putih"}),
		recipe.Normalize(models.RawRecipe{"id": float64(4), "judul": "Es Campur"}),
	}
	categories := []models.Category{
		recipe.MapCategory(models.RawCategory{"cid": float64(1), "category_name": "Ayam"}),
		recipe.MapCategory(models.RawCategory{"cid": float64(3), "category_name": "Sayur"}),
	}
	return recipes, categories
}

func TestReplaceAndSnapshot(t *testing.T) {
	s := NewState()
	snap := s.Snapshot()
	assert.NotNil(t, snap.Recipes)
	assert.Empty(t, snap.Recipes)

	recipes, categories := fixture()
	s.Replace(recipes, categories)
	s.SetStatus(PhaseReady, "")

	snap = s.Snapshot()
	assert.Len(t, snap.Recipes, 4)
	assert.Len(t, snap.Categories, 2)
	assert.Equal(t, PhaseReady, snap.Status.Phase)

	// nil keeps the previous collection
	s.Replace(nil, []models.Category{})
	snap = s.Snapshot()
	assert.Len(t, snap.Recipes, 4)
	assert.Empty(t, snap.Categories)
}

func TestLoaded(t *testing.T) {
	s := NewState()
	assert.False(t, s.Loaded())

	s.SetStatus(PhaseLoading, "")
	assert.False(t, s.Loaded())

	s.SetStatus(PhaseOffline, "")
	assert.True(t, s.Loaded())

	s.SetStatus(PhaseLoading, "")
	assert.True(t, s.Loaded())
	assert.Equal(t, PhaseLoading, s.Snapshot().Status.Phase)
}

func TestInCategory(t *testing.T) {
	s := NewState()
	s.Replace(fixture())
	snap := s.Snapshot()

	got := snap.InCategory(3)
	require.Len(t, got, 2)
	assert.Equal(t, "Sayur Asem", got[0].Title)
	assert.Equal(t, "Tumis Kangkung", got[1].Title)

	assert.Empty(t, snap.InCategory(99))

	c, ok := snap.Category(3)
	require.True(t, ok)
	assert.Equal(t, "Sayur", c.Name)

	_, ok = snap.Category(99)
	assert.False(t, ok)
}

func TestFind(t *testing.T) {
	s := NewState()
	s.Replace(fixture())
	snap := s.Snapshot()

	r, ok := snap.Find("ayam-goreng-2")
	require.True(t, ok)
	assert.Equal(t, "2", r.ID)

	r, ok = snap.Find("4")
	require.True(t, ok)
	assert.Equal(t, "Es Campur", r.Title)

	_, ok = snap.Find("rendang-9")
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	s := NewState()
	s.Replace(fixture())
	snap := s.Snapshot()

	tests := []struct {
		query string
		want  []string
	}{
		{"", nil},
		{"   ", nil},
		{"kangkung", []string{"Tumis Kangkung"}},
		{"SAYUR", []string{"Sayur Asem", "Tumis Kangkung"}},
		{"garam", []string{"Ayam Goreng"}},
		{"bawang putih", []string{"Tumis Kangkung"}},
		{"rendang", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := snap.Search(tt.query)
			require.NotNil(t, got)
			titles := make([]string, 0, len(got))
			for _, r := range got {
				titles = append(titles, r.Title)
			}
			if tt.want == nil {
				assert.Empty(t, titles)
				return
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}
