package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"

	"resephub/internal/catalog"
	"resephub/internal/favorites"
	"resephub/internal/loader"
	"resephub/internal/offline"
	"resephub/internal/pages"
	"resephub/internal/storage"
	synchub "resephub/internal/sync"
	"resephub/internal/visitor"
	"resephub/internal/web"
	"resephub/pkg/database"
	"resephub/pkg/logging"
	"resephub/pkg/utils"
)

func main() {
	cfg, err := utils.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := logging.With("web-server")

	db := database.MustOpen(database.Config{Path: cfg.Database.Path})
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}
	repo := storage.NewRepo(db)

	cache, err := offline.OpenBadger(cfg.Cache.Dir, cfg.Cache.Name)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Cache.Dir).Msg("open offline cache")
	}
	defer cache.Close()
	transport := offline.NewTransport(http.DefaultTransport, cache,
		offline.DefaultPolicy(cfg.Upstream.CategoriesURL, cfg.Upstream.RecipesURL))
	client := transport.Client(cfg.Upstream.Timeout)

	hub := synchub.NewHub()
	state := catalog.NewState()

	ld := loader.New(client, cfg.Upstream.CategoriesURL, cfg.Upstream.RecipesURL, repo.Scope(""), state)
	ld.Notify = hub
	ld.Timeout = cfg.Upstream.Timeout

	tmpl, err := web.Templates()
	if err != nil {
		log.Fatal().Err(err).Msg("parse templates")
	}

	gin.SetMode(gin.ReleaseMode)
	tokens := visitor.Tokens{
		Secret: []byte(cfg.Visitor.Secret),
		Issuer: "resephub",
		TTL:    cfg.Visitor.TTL,
	}
	router := web.NewEngine(tmpl, visitor.Middleware(tokens, cfg.Visitor.CookieName))

	router.GET("/ws", synchub.WSHandler(hub))
	(&web.Ops{DB: db, Hub: hub, State: state}).RegisterRoutes(router)

	media := web.NewMediaProxy(client, cfg.Upstream.MediaHosts)
	media.RegisterRoutes(router)

	favHandler := favorites.NewHandler(repo, state, hub)
	builder := pages.Builder{Media: media.URL, BaseURL: cfg.Server.PublicURL}
	pagesHandler := web.NewHandler(state, favHandler, builder)
	if cfg.Cache.AssetOrigin != "" {
		pagesHandler.Assets = web.NewAssetProxy(client, cfg.Cache.AssetOrigin)
	}
	pagesHandler.RegisterRoutes(router)

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	var tcpSrv *synchub.Server
	if cfg.Server.SyncAddr != "" {
		tcpSrv = synchub.NewServer(cfg.Server.SyncAddr, hub)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	if tcpSrv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tcpSrv.Run(); err != nil {
				errCh <- err
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// pages render from whatever state is present; the first load fills it
	wg.Add(1)
	go func() {
		defer wg.Done()
		ld.Run(ctx, cfg.Upstream.RefreshInterval)
	}()

	// static assets read from this cache when they come from a remote origin
	if cfg.Cache.AssetOrigin != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			transport.Install(ctx, cfg.Cache.AssetOrigin, cfg.Cache.Assets)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	log.Info().Msg("shutting down servers")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	if tcpSrv != nil {
		if err := tcpSrv.Close(); err != nil {
			log.Error().Err(err).Msg("tcp shutdown error")
		}
	}

	wg.Wait()
	log.Info().Msg("servers stopped")
}
