package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmcdole/portal/internal/adapter"
	"github.com/mmcdole/portal/internal/api"
	"github.com/mmcdole/portal/internal/library"
	"github.com/mmcdole/portal/internal/notes"
	"github.com/mmcdole/portal/internal/search"
	"github.com/mmcdole/portal/internal/store"
	"github.com/mmcdole/portal/internal/studio"
)

// app holds everything a command needs, built once per invocation
type app struct {
	cfg    *adapter.Config
	logger *slog.Logger

	client  *api.Client
	library *library.Service
	notes   *notes.Service
	search  *search.Service
	studio  *studio.Service
	history *store.HistoryStore

	logCloser io.Closer
	metrics   *http.Server
}

// newApp wires the API client, services and history store from cfg
func newApp(cfg *adapter.Config, logger *slog.Logger, logCloser io.Closer) (*app, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	client := api.NewClient(api.Config{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		MaxRetries: cfg.API.MaxRetries,
		RetryDelay: cfg.API.RetryDelay,
		Logger:     logger,
		Registerer: registry,
	})

	historyDir, err := adapter.ExpandHome(cfg.History.Path)
	if err != nil {
		return nil, err
	}
	history, err := store.NewHistoryStore(historyDir, cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	notesSvc := notes.NewService(client, logger)
	a := &app{
		cfg:    cfg,
		logger: logger,
		client: client,
		library: library.NewService(client, library.Options{
			FetchTimeout:  cfg.API.Timeout,
			NotesPageSize: cfg.Pager.NotesPageSize,
		}, logger),
		notes:  notesSvc,
		search: search.NewService(client, cfg.Search.Limit, logger),
		studio: studio.NewService(client, client, notesSvc, history, studio.Options{
			UseLLMJudge:  cfg.Studio.UseLLMJudge,
			HistoryLimit: cfg.Studio.HistoryLimit,
		}, logger),
		history:   history,
		logCloser: logCloser,
	}

	if cfg.Metrics.Addr != "" {
		a.serveMetrics(registry)
	}
	return a, nil
}

// serveMetrics exposes the registry on cfg.Metrics.Addr until Close
func (a *app) serveMetrics(registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	a.metrics = &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("serving metrics", "addr", a.cfg.Metrics.Addr)
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
}

// Close releases the history database, metrics listener and log file
func (a *app) Close() error {
	var errs []error
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
