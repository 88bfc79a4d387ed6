package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"variant-manager/core/loader"
	"variant-manager/core/logger"
	"variant-manager/core/middleware/auth"
	"variant-manager/core/middleware/rayid"
	"variant-manager/feature/journal"
	"variant-manager/feature/status"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "variant-manager/docs/swagger"
)

// @title Variant Manager API
// @version 1.0
// @description Status API of the variant file manager watch.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// watchCmd syncs then keeps the output tree up to date.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync, then apply input changes until interrupted",
	Long: `Runs a full sync, then watches the main and channel trees and reconciles
every change into the output tree until SIGINT or SIGTERM.

A failing filesystem operation stops the watch with a non-zero exit.
When server.enabled is set, the status API is served while watching.`,
	RunE: runWatch,
}

func init() {
	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := newRuntime(ctx, cmd, runtimeOptions{watch: true, observers: true, lock: true, checkerTTL: 5 * time.Second})
	if err != nil {
		return err
	}
	defer rt.Close()
	logg := rt.logger

	if _, err := rt.manager.Sync(ctx); err != nil {
		return err
	}
	if err := rt.manager.StartWatch(ctx); err != nil {
		return err
	}
	defer func() {
		if err := rt.manager.StopWatch(); err != nil {
			logg.Warn("Failed to stop watch", zap.Error(err))
		}
	}()

	var app *fiber.App
	if rt.cfg.Server.Enabled {
		app, err = newServer(rt)
		if err != nil {
			return err
		}
		go func() {
			logg.Info("Starting server", zap.String("port", rt.cfg.Server.Port))
			if err := app.Listen(rt.cfg.Server.Addr()); err != nil {
				logg.Error("Server stopped", zap.Error(err))
			}
		}()
		defer func() { _ = app.Shutdown() }()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case s := <-sig:
		logg.Info("Shutting down watch", zap.String("signal", s.String()))
		return nil
	case <-rt.manager.Done():
		if err := rt.manager.Err(); err != nil {
			return fmt.Errorf("watch stopped: %w", err)
		}
		return errors.New("watch stopped unexpectedly")
	}
}

// newServer builds the status API for a running watch.
func newServer(rt *runtime) (*fiber.App, error) {
	logg := rt.logger
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	mgr := loader.NewManager()
	mgr.Register(status.NewFeature(rt.manager, rt.checker, logg))
	mgr.Register(journal.NewFeature(rt.journal, logg))

	// RayID first so every later log line carries it
	app.Use(rayid.New())

	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Debug("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey}))

	loaded, err := mgr.LoadAll(app)
	if err != nil {
		return nil, err
	}
	logg.Debug("Features loaded", zap.Strings("features", loaded))
	return app, nil
}
