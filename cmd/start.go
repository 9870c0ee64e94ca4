package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"feedsync/core/loader"
	"feedsync/core/logger"
	"feedsync/core/metrics"
	"feedsync/core/middleware/auth"
	"feedsync/core/middleware/rayid"
	"feedsync/feature/integrity"
	"feedsync/feature/timeline"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "feedsync/docs/swagger"
)

// @title feedsync API
// @version 1.0
// @description API for driving feed pagination and gap fills.
// @host localhost:8080
// @BasePath /

var activateFlag bool

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the feedsync server",
	Long:  `Starts the HTTP server, activates the configured feed and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		logg := a.log

		registry := timeline.NewRegistry()
		defer registry.Close()

		feed, err := a.newFeed("")
		if err != nil {
			return err
		}
		if err := registry.Add(feed); err != nil {
			return err
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// RayID first so every later log line carries it.
		app.Use(rayid.New())
		app.Use(logger.Middleware(logg))
		app.Use(a.metrics.Middleware())

		public := []string{"/swagger"}
		if path := a.cfg.Server.MetricsPath; path != "" {
			app.Get(path, metrics.Handler(a.promRegistry))
			public = append(public, path)
		}
		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey, Public: public}))
		if !a.cfg.Server.AuthEnabled() {
			logg.Warn("API key not configured, requests are not authenticated")
		}

		mgr := loader.NewManager(logg)
		mgr.Register(timeline.NewFeature(registry, logg.Named("timeline")))
		mgr.Register(integrity.NewFeature(a.storageClient, a.cfg.Storage, a.db, logg.Named("integrity")))
		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		if activateFlag {
			if err := feed.Activate(); err != nil {
				return err
			}
			logg.Info("Feed activated", zap.String("feed", feed.ID()))
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("addr", a.cfg.Server.Addr()), zap.Strings("features", mgr.Names()))
			errCh <- app.Listen(a.cfg.Server.Addr())
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		case <-ctx.Done():
		}

		logg.Info("Shutting down server...")
		return app.ShutdownWithTimeout(a.cfg.Server.ShutdownTimeout)
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
	startCmd.Flags().BoolVar(&activateFlag, "activate", true, "activate the configured feed on startup")
}
