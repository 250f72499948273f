package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"resephub/internal/catalog"
	"resephub/internal/loader"
	"resephub/internal/offline"
	"resephub/internal/storage"
	"resephub/pkg/database"
	"resephub/pkg/logging"
	"resephub/pkg/utils"
)

// fetch runs one load cycle against the upstream endpoints and persists
// the snapshot, so a web server started offline has data to serve.
func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the exit code so deferred closes always happen.
func run(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	categoriesURL := fs.String("categories", "", "override upstream categories URL")
	recipesURL := fs.String("recipes", "", "override upstream recipes URL")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := utils.Load()
	if err != nil {
		logging.Error().Err(err).Msg("load config")
		return 1
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := logging.With("fetch")

	if *categoriesURL != "" {
		cfg.Upstream.CategoriesURL = *categoriesURL
	}
	if *recipesURL != "" {
		cfg.Upstream.RecipesURL = *recipesURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Upstream.Timeout)
	defer cancel()

	db, err := database.Open(database.Config{Path: cfg.Database.Path})
	if err != nil {
		log.Error().Err(err).Msg("open database")
		return 1
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Error().Err(err).Msg("db migrate failed")
		return 1
	}

	cache, err := offline.OpenBadger(cfg.Cache.Dir, cfg.Cache.Name)
	if err != nil {
		log.Error().Err(err).Msg("open offline cache")
		return 1
	}
	defer cache.Close()
	transport := offline.NewTransport(http.DefaultTransport, cache,
		offline.DefaultPolicy(cfg.Upstream.CategoriesURL, cfg.Upstream.RecipesURL))

	state := catalog.NewState()
	ld := loader.New(transport.Client(cfg.Upstream.Timeout), cfg.Upstream.CategoriesURL, cfg.Upstream.RecipesURL,
		storage.NewRepo(db).Scope(""), state)

	st := ld.Load(ctx)
	snap := state.Snapshot()
	log.Info().
		Str("phase", string(st.Phase)).
		Int("recipes", len(snap.Recipes)).
		Int("categories", len(snap.Categories)).
		Str("db", cfg.Database.Path).
		Msg("done")

	if st.Phase != catalog.PhaseReady {
		return 1
	}
	return 0
}
