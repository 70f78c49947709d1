package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockledger/internal/config"
	"stockledger/internal/http/handlers"
	applog "stockledger/internal/log"
	"stockledger/internal/repos"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		applog.Logger().Fatal().Err(err).Msg("config")
	}

	log := applog.Setup(applog.Options{Env: cfg.Env, Level: cfg.LogLevel, File: cfg.LogFile})

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open database")
	}
	defer db.Close()

	deps := handlers.NewDeps(db)

	if cfg.SeedDemo {
		seeded, err := deps.Ledger.SeedIfEmpty(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("seed demo data")
		}
		if seeded {
			log.Info().Msg("demo data loaded")
		}
	}

	app := handlers.NewApp(cfg, deps)

	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("driver", cfg.DBDriver).Msg("listening")
		if err := app.Listen(cfg.Addr()); err != nil {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("stopped")
}
