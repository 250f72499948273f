// Package loader fetches the category and recipe lists, keeps the catalog
// state current, and falls back to the persisted snapshot when the network
// is unavailable.
package loader

import (
	"context"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"resephub/internal/catalog"
	"resephub/internal/metrics"
	"resephub/internal/recipe"
	"resephub/internal/storage"
	synchub "resephub/internal/sync"
	"resephub/pkg/logging"
	"resephub/pkg/models"
)

const (
	MsgLoading = "Memuat kategori & resep…"
	MsgOffline = "Offline — menggunakan data tersimpan"
)

// Notifier receives a catalog.refresh event after every load.
type Notifier interface {
	BroadcastJSON(v any)
}

type Loader struct {
	Client        HTTPClient
	CategoriesURL string
	RecipesURL    string
	Store         storage.KV
	State         *catalog.State
	// Notify is optional.
	Notify Notifier
	// Timeout bounds one paired fetch. Zero means no extra bound.
	Timeout time.Duration

	breaker *gobreaker.CircuitBreaker[payload]
}

func New(client HTTPClient, categoriesURL, recipesURL string, kv storage.KV, state *catalog.State) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		Client:        client,
		CategoriesURL: categoriesURL,
		RecipesURL:    recipesURL,
		Store:         kv,
		State:         state,
		breaker:       newBreaker("upstream"),
	}
}

// Load runs one load cycle and returns the resulting status. It never
// fails: network and parse errors switch to the cached snapshot and are
// reported through the status only.
func (l *Loader) Load(ctx context.Context) catalog.Status {
	log := logging.With("loader")
	l.State.SetStatus(catalog.PhaseLoading, MsgLoading)

	start := time.Now()
	p, err := l.fetch(ctx)
	metrics.LoadDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		log.Warn().Err(err).Msg("fetch failed, using cached snapshot")
		l.fallback(ctx)
		l.State.SetStatus(catalog.PhaseOffline, MsgOffline)
		metrics.LoadsTotal.WithLabelValues(string(catalog.PhaseOffline)).Inc()
	} else {
		recipes, categories := mapPayload(p)
		l.State.Replace(recipes, categories)

		snap := l.State.Snapshot()
		if err := SaveSnapshot(ctx, l.Store, snap.Recipes, snap.Categories); err != nil {
			log.Error().Err(err).Msg("persist snapshot")
		}
		l.State.SetStatus(catalog.PhaseReady, "")
		metrics.LoadsTotal.WithLabelValues(string(catalog.PhaseReady)).Inc()
	}

	snap := l.State.Snapshot()
	metrics.CatalogSize.WithLabelValues("recipes").Set(float64(len(snap.Recipes)))
	metrics.CatalogSize.WithLabelValues("categories").Set(float64(len(snap.Categories)))
	log.Info().
		Str("phase", string(snap.Status.Phase)).
		Int("recipes", len(snap.Recipes)).
		Int("categories", len(snap.Categories)).
		Dur("took", time.Since(start)).
		Msg("catalog loaded")

	if l.Notify != nil {
		l.Notify.BroadcastJSON(synchub.CatalogEvent{
			Type:       synchub.TypeCatalogRefresh,
			Phase:      string(snap.Status.Phase),
			Message:    snap.Status.Message,
			Recipes:    len(snap.Recipes),
			Categories: len(snap.Categories),
			At:         snap.Status.UpdatedAt,
		})
	}
	return snap.Status
}

// Run loads once, then again every interval until ctx is done. A zero
// interval means a single load.
func (l *Loader) Run(ctx context.Context, interval time.Duration) {
	l.Load(ctx)
	if interval <= 0 {
		return
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Load(ctx)
		}
	}
}

// fetch issues both requests concurrently. Either one failing fails the
// pair; nothing is applied partially.
func (l *Loader) fetch(ctx context.Context) (payload, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	return l.breaker.Execute(func() (payload, error) {
		var p payload
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			p.categories, err = fetchList(gctx, l.Client, l.CategoriesURL)
			return err
		})
		g.Go(func() error {
			var err error
			p.recipes, err = fetchList(gctx, l.Client, l.RecipesURL)
			return err
		})
		if err := g.Wait(); err != nil {
			return payload{}, err
		}
		return p, nil
	})
}

func (l *Loader) fallback(ctx context.Context) {
	recipes, categories, err := LoadSnapshot(ctx, l.Store)
	if err != nil {
		logging.Warn().Str("component", "loader").Err(err).Msg("read cached snapshot")
		return
	}
	l.State.Replace(recipes, categories)
}

// mapPayload normalizes the raw lists. A nil list (non-array body) stays
// nil so the state keeps its previous value.
func mapPayload(p payload) ([]models.Recipe, []models.Category) {
	var categories []models.Category
	if p.categories != nil {
		categories = make([]models.Category, 0, len(p.categories))
		for _, raw := range p.categories {
			categories = append(categories, recipe.MapCategory(raw))
		}
	}

	var recipes []models.Recipe
	if p.recipes != nil {
		recipes = make([]models.Recipe, 0, len(p.recipes))
		for _, raw := range p.recipes {
			recipes = append(recipes, recipe.Normalize(raw))
		}
	}
	return recipes, categories
}
