package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/zarlcorp/core/pkg/zfilesystem"
	"go.uber.org/zap"

	httpadapter "github.com/junsantilla/cvalley/internal/adapter/http"
	repo "github.com/junsantilla/cvalley/internal/adapter/repository"
	"github.com/junsantilla/cvalley/internal/config"
	"github.com/junsantilla/cvalley/internal/form"
	"github.com/junsantilla/cvalley/internal/logger"
	"github.com/junsantilla/cvalley/internal/metrics"
	"github.com/junsantilla/cvalley/internal/session"
	"github.com/junsantilla/cvalley/internal/store"
	"github.com/junsantilla/cvalley/internal/usecase"
	infra "github.com/junsantilla/cvalley/pkg/infrastructure"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg := logger.New(cfg)
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	if err := os.MkdirAll(cfg.Storage.Dir, 0o700); err != nil {
		lg.Fatal("create storage dir", zap.String("dir", cfg.Storage.Dir), zap.Error(err))
	}
	st := store.Open(zfilesystem.NewOSFileSystem(cfg.Storage.Dir), lg,
		store.WithKey(cfg.Storage.Key), store.WithMetrics(m))
	if !st.Available() {
		lg.Warn("storage unavailable, edits will not persist", zap.String("dir", cfg.Storage.Dir))
	}
	if cfg.Storage.Watch {
		if err := st.Watch(ctx, cfg.Storage.Dir); err != nil {
			lg.Warn("storage watch disabled", zap.Error(err))
		}
	}

	ctrl := form.NewController(st, lg,
		form.WithStrict(cfg.App.Development()), form.WithMetrics(m))
	ctrl.Open()
	defer ctrl.Close()

	renderer := infra.NewChromedpRenderer(infra.ChromeOptions{
		ExecPath: cfg.Chrome.Path,
		Scale:    cfg.Export.Scale,
		Timeout:  cfg.Export.Timeout,
	}, lg)

	exports := repo.NewExportsRepo(cfg.Export.History)
	exporter := usecase.NewExporter(renderer, renderer, exports, lg,
		usecase.WithBaseName(cfg.Export.BaseName),
		usecase.WithTimeout(cfg.Export.Timeout),
		usecase.WithMetrics(m))

	sess := session.New(
		session.NewLocalProvider(cfg.Session.DisplayName, cfg.Session.Email),
		// signing out erases the slot and the session image
		session.ClearFunc(func() error {
			ctrl.SetImagePreview("")
			st.Clear()
			return nil
		}),
		lg)

	h := httpadapter.NewHandler(httpadapter.Deps{
		Controller:     ctrl,
		Source:         st,
		Exporter:       exporter,
		Exports:        exports,
		Session:        sess,
		Measurer:       renderer,
		MeasureTimeout: cfg.Export.Timeout,
		Metrics:        m,
		Log:            lg,
	})

	app := fiber.New(fiber.Config{DisableStartupMessage: !cfg.App.Development()})
	h.Register(app)

	go func() {
		lg.Info("listening", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Dir))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			lg.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	h.Close()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		lg.Warn("shutdown", zap.Error(err))
	}
}
