package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"

	"github.com/Simplici0/quotecalc/internal/config"
	"github.com/Simplici0/quotecalc/internal/configio"
	"github.com/Simplici0/quotecalc/internal/db"
	"github.com/Simplici0/quotecalc/internal/history"
	"github.com/Simplici0/quotecalc/internal/kv"
	"github.com/Simplici0/quotecalc/internal/logger"
	"github.com/Simplici0/quotecalc/internal/migrations"
	"github.com/Simplici0/quotecalc/internal/mirror"
	"github.com/Simplici0/quotecalc/internal/repository"
	"github.com/Simplici0/quotecalc/internal/seed"
)

type routerOptions struct {
	metrics      bool
	allowedHosts []string
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(logger.Options{Dev: cfg.IsDev(), Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		lg.Fatal("failed to open database", "path", cfg.DBPath, "err", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		lg.Fatal("failed to run database migrations", "err", err)
	}

	store := kv.NewSQLite(database)
	stats, err := seed.Run(ctx, store)
	if err != nil {
		lg.Fatal("failed to seed defaults", "err", err)
	}
	if stats.Inserts > 0 {
		lg.Info("seeded defaults", "documents", stats.Inserts)
	}

	repo := repository.New(store, lg.With("component", "repository"))

	var adapter mirror.Adapter
	if cfg.MirrorDir != "" {
		adapter = mirror.NewDirAdapter(afero.NewOsFs(), cfg.MirrorDir)
	}
	mir := mirror.NewManager(adapter, repo, lg.With("component", "mirror"))
	repo.SetNotifier(mir)
	if err := mir.Resume(ctx); err != nil {
		lg.Warn("failed to resume mirror", "err", err)
	}

	srv := &server{
		repo:     repo,
		history:  history.New(repo, cfg.HistoryDepth, lg.With("component", "history")),
		config:   configio.New(repo, configio.Options{IncludeQuotes: cfg.ExportIncludeQuotes}),
		mirror:   mir,
		log:      lg,
		currency: cfg.Currency,
		now:      time.Now,
	}

	opts := routerOptions{metrics: cfg.MetricsEnabled}
	if isLoopback(cfg.Addr) {
		opts.allowedHosts = loopbackHosts
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(srv, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	lg.Info("listening", "addr", cfg.Addr, "env", cfg.Env)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Fatal("server stopped", "err", err)
	}
}

func newRouter(s *server, opts routerOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if len(opts.allowedHosts) > 0 {
		r.Use(hostGuard(opts.allowedHosts))
	}

	r.Get("/health", s.handleHealth)
	if opts.metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.serialize)

		s.catalogRoutes(r)
		r.Route("/quotes", s.quoteRoutes)

		r.Get("/history", s.handleHistory)
		r.Post("/history/undo", s.handleUndo)
		r.Post("/history/redo", s.handleRedo)

		r.Get("/config/export", s.handleConfigExport)
		r.Post("/config/import", s.handleConfigImport)

		r.Get("/settings", s.handleSettingsGet)
		r.Put("/settings", s.handleSettingsPut)
		r.Get("/local-settings/{key}", s.handleLocalSettingGet)
		r.Put("/local-settings/{key}", s.handleLocalSettingPut)

		r.Get("/mirror", s.handleMirrorStatus)
		r.Post("/mirror/enable", s.handleMirrorEnable)
		r.Post("/mirror/disable", s.handleMirrorDisable)
		r.Post("/mirror/save", s.handleMirrorSave)
		r.Post("/mirror/load", s.handleMirrorLoad)
	})

	return r
}
