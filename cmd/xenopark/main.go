// Package main is the entry point for the xenopark backend.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/xenopark/xenopark/internal/campaign"
	"github.com/xenopark/xenopark/internal/catalog"
	"github.com/xenopark/xenopark/internal/config"
	"github.com/xenopark/xenopark/internal/crisis"
	"github.com/xenopark/xenopark/internal/domain"
	"github.com/xenopark/xenopark/internal/game"
	"github.com/xenopark/xenopark/internal/ipc"
	xplog "github.com/xenopark/xenopark/internal/log"
	"github.com/xenopark/xenopark/internal/notify"
	"github.com/xenopark/xenopark/internal/park"
	"github.com/xenopark/xenopark/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to configuration JSON file")
	flag.Parse()

	if *showVersion {
		fmt.Printf("xenopark %s (commit=%s, built=%s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg := config.Default()
	if path := config.Resolve(*configPath); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			fatal(fmt.Sprintf("load config: %v", err))
		}
		cfg = loaded
	}

	xplog.Configure(xplog.Config{Level: cfg.LogLevel})
	logger := xplog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		fatal(err.Error())
	}
	logger.Info().Msg("shut down cleanly")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	events := catalog.Builtin()
	if cfg.CatalogPath != "" {
		if events, err = catalog.Load(cfg.CatalogPath); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
	}

	p := park.New(cfg.Park(), xplog.WithComponent("park"))
	feed := notify.NewFeed(cfg.NotificationCapacity, xplog.WithComponent("notify"))

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	engine, err := crisis.NewEngine(p, feed, crisis.EngineConfig{
		Catalog:      events,
		Rand:         rand.New(rand.NewPCG(seed, seed>>1|1)),
		Scheduler:    crisis.RealScheduler{},
		CountdownSec: cfg.CountdownSec,
		Grace:        cfg.Grace(),
		HistoryCap:   cfg.HistoryCap,
		Logger:       xplog.WithComponent("crisis"),
	})
	if err != nil {
		return fmt.Errorf("create crisis engine: %w", err)
	}
	defer engine.Close()

	crisisRepo := &store.CrisisRepo{Audit: &store.AuditRepo{}}
	engine.OnResolved(persistResolution(db, crisisRepo, logger))

	manager := campaign.NewManager(db, p, engine, cfg.MaxCheckpoints, xplog.WithComponent("campaign"))

	loop := game.NewLoop(p, engine, cfg.DayInterval(), xplog.WithComponent("game"))
	loop.OnDay(func(ctx context.Context, res game.StepResult) {
		if res.Crisis == nil {
			return
		}
		label := fmt.Sprintf("day %d: %s", res.Park.Day, res.Crisis.Name)
		if _, err := manager.Checkpoint(ctx, label); err != nil {
			logger.Warn().Err(err).Msg("crisis checkpoint failed")
		}
	})

	handler := &ipc.Handler{
		Park:       p,
		Crisis:     engine,
		Loop:       loop,
		Feed:       feed,
		Campaign:   manager,
		DB:         db,
		CrisisRepo: crisisRepo,
		Version:    version,
	}
	srv := ipc.NewServer(handler, ipc.ServerConfig{
		ListenAddr:         cfg.ListenAddr,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             xplog.WithComponent("http"),
	})

	g, gctx := errgroup.WithContext(ctx)

	loop.Start(gctx)
	manager.StartAutosave(gctx, cfg.AutosaveInterval())

	g.Go(func() error {
		logger.Info().
			Str("url", ipc.FormatListenURL(cfg.ListenAddr)).
			Int("catalog_size", len(events)).
			Uint64("seed", seed).
			Msg("xenopark listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down...")

		loop.Stop()
		manager.StopAutosave()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := manager.Save(shutdownCtx, campaign.AutoSlot); err != nil {
			logger.Warn().Err(err).Msg("final autosave failed")
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func persistResolution(db *sql.DB, repo *store.CrisisRepo, logger zerolog.Logger) func(domain.Resolution) {
	return func(res domain.Resolution) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.RecordResolution(ctx, db, res); err != nil {
			logger.Error().Err(err).Str("event", res.Event.Name).Msg("persist crisis resolution")
		}
	}
}

// fatal prints an error and, on Windows, waits for a keypress so the user can
// read the message when the exe is launched by double-click.
func fatal(msg string) {
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", msg)
	if runtime.GOOS == "windows" {
		fmt.Fprintln(os.Stderr, "\nPress Enter to exit...")
		bufio.NewReader(os.Stdin).ReadBytes('\n')
	}
	os.Exit(1)
}
