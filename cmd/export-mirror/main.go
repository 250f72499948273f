package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"resephub/internal/loader"
	"resephub/internal/recipe"
	"resephub/internal/storage"
	"resephub/pkg/database"
	"resephub/pkg/logging"
	"resephub/pkg/models"
	"resephub/pkg/utils"
)

// export-mirror writes the persisted catalog snapshot back out in the
// upstream shape, as fixtures for mirror-server.
func main() {
	outDir := flag.String("out", "data", "output directory for kategori.json and data.json")
	flag.Parse()

	cfg, err := utils.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := logging.With("export-mirror")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := database.MustOpen(database.Config{Path: cfg.Database.Path})
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	recipes, categories, err := loader.LoadSnapshot(ctx, storage.NewRepo(db).Scope(""))
	if err != nil {
		log.Fatal().Err(err).Msg("read snapshot")
	}
	if recipes == nil && categories == nil {
		log.Fatal().Str("db", cfg.Database.Path).Msg("no snapshot stored; run fetch first")
	}

	rawCategories := make([]models.RawCategory, 0, len(categories))
	for _, c := range categories {
		rawCategories = append(rawCategories, recipe.RawCategoryOf(c))
	}
	rawRecipes := make([]models.RawRecipe, 0, len(recipes))
	for _, r := range recipes {
		rawRecipes = append(rawRecipes, recipe.Raw(r))
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("mkdir failed")
	}
	if err := writeJSON(filepath.Join(*outDir, "kategori.json"), rawCategories); err != nil {
		log.Fatal().Err(err).Msg("write categories")
	}
	if err := writeJSON(filepath.Join(*outDir, "data.json"), rawRecipes); err != nil {
		log.Fatal().Err(err).Msg("write recipes")
	}

	log.Info().
		Int("categories", len(rawCategories)).
		Int("recipes", len(rawRecipes)).
		Str("dir", *outDir).
		Msg("exported")
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
