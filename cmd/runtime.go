package cmd

import (
	"context"
	"fmt"
	"time"

	"variant-manager/core/config"
	"variant-manager/core/database"
	"variant-manager/core/fsutil"
	"variant-manager/core/logger"
	"variant-manager/core/reconcile"
	"variant-manager/core/storage"
	"variant-manager/core/variant"
	"variant-manager/core/watcher"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runtime holds everything a command needs, built once from configuration.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	session string
	roots   variant.Roots
	manager *variant.Manager
	checker *reconcile.Checker
	journal *database.Journal
	mirror  *storage.Mirror
	lock    *variant.Lock
}

// runtimeOptions selects the optional parts of a runtime.
type runtimeOptions struct {
	// watch attaches an fsnotify subscription to the manager.
	watch bool
	// observers attaches the journal and mirror when they are enabled.
	observers bool
	// lock takes the output lock when enabled in configuration.
	lock bool
	// checkerTTL is the drift snapshot cache lifetime.
	checkerTTL time.Duration
}

// loadConfig loads configuration and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("channel") {
		cfg.Variant.Channel = channelFlag
	}
	if flags.Changed("verbose") {
		cfg.Variant.Verbose = verboseFlag
	}
	if flags.Changed("clean") {
		cfg.Variant.Clean = cleanFlag
	}
	return cfg, nil
}

// newRuntime wires configuration, logging, roots, observers and the manager.
func newRuntime(ctx context.Context, cmd *cobra.Command, opts runtimeOptions) (rt *runtime, err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logCfg := logger.Verbose(cfg.Log, cfg.Variant.Verbose)
	l, err := logger.New(&logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	roots, err := cfg.Variant.Roots()
	if err != nil {
		return nil, err
	}

	rt = &runtime{
		cfg:     cfg,
		logger:  l,
		session: uuid.NewString(),
		roots:   roots,
	}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	if opts.lock && cfg.Variant.Lock {
		if rt.lock, err = variant.AcquireLock(roots.Output); err != nil {
			return nil, err
		}
	}

	matcher, err := variant.NewMatcher(cfg.Variant.Ignore)
	if err != nil {
		return nil, err
	}
	rt.checker = reconcile.NewChecker(fsutil.New(afero.NewOsFs()), roots, matcher, opts.checkerTTL)

	var observers []variant.Observer
	observers = append(observers, rt.checker)

	if cfg.Database.Enabled {
		if rt.journal, err = openJournal(cfg.Database, rt.session); err != nil {
			if opts.observers {
				l.Warn("Optional journal database unavailable", zap.Error(err))
				err = nil
			} else {
				return nil, err
			}
		} else if opts.observers {
			observers = append(observers, rt.journal)
		}
	}

	if opts.observers && cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		rt.mirror = storage.NewMirror(client, fsutil.New(afero.NewOsFs()), cfg.Storage, roots.Output, l)
		if err := rt.mirror.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		observers = append(observers, rt.mirror)
	}

	var sub variant.Subscription
	if opts.watch {
		resolver := variant.NewResolver(roots)
		watchRoots := []string{roots.Main}
		if roots.HasChannel() {
			watchRoots = append(watchRoots, roots.Channel)
		}
		sub = watcher.New(watcher.Options{
			Roots: watchRoots,
			Ignore: func(path string) bool {
				return matcher.Ignored(resolver, path)
			},
			Logger: l,
		})
	}

	rt.manager, err = variant.NewManager(roots, variant.Options{
		Ignore:       cfg.Variant.Ignore,
		Clean:        cfg.Variant.Clean,
		Subscription: sub,
		Observers:    observers,
		Logger:       l,
	})
	if err != nil {
		return nil, err
	}

	l.Debug("Runtime ready",
		zap.String("session", rt.session),
		zap.String("main", roots.Main),
		zap.String("channel", roots.Channel),
		zap.String("output", roots.Output))
	return rt, nil
}

func openJournal(cfg database.Config, session string) (*database.Journal, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return database.NewJournal(db, session)
}

// Close releases the output lock and flushes the logger.
func (rt *runtime) Close() {
	if err := rt.lock.Release(); err != nil {
		rt.logger.Warn("Failed to release output lock", zap.Error(err))
	}
	_ = rt.logger.Sync()
}
