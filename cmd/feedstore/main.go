// Feedstore serves the feed catalogue to the host application.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sethvargo/go-envconfig"
	"github.com/sethvargo/go-retry"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	_ "modernc.org/sqlite"

	"github.com/jdholdren/feedstore/internal/api"
	"github.com/jdholdren/feedstore/internal/feeds"
	"github.com/jdholdren/feedstore/internal/logger"
	"github.com/jdholdren/feedstore/internal/migrations"
	"github.com/jdholdren/feedstore/internal/sqlite"
)

type config struct {
	Database string `env:"DATABASE, required"`

	Port       int    `env:"PORT, default=4444"`
	CorsOrigin string `env:"CORS_ORIGIN, default=*"`

	// How long to keep trying to reach the database on startup
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT, default=10s"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	l := logger.New(os.Stderr, cfg.LoggerFormat, slog.LevelInfo)
	slog.SetDefault(l)

	dbx, err := openDB(ctx, cfg)
	if err != nil {
		log.Fatalf("error opening database: %s", err)
	}
	defer dbx.Close()

	// Run all migrations
	if err := migrations.Run(dbx); err != nil {
		log.Fatalf("error running migrations: %s", err)
	}

	repo := sqlite.New(sqlite.PoolOpener(dbx))

	// Start the application
	fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.SlogLogger{Logger: l}
		}),
		fx.Supply(
			api.ServerConfig{
				Port:       cfg.Port,
				CorsOrigin: cfg.CorsOrigin,
			},
			fx.Annotate(repo, fx.As(new(feeds.Repository))),
		),
		api.Module,
		fx.Invoke(func(*api.Server) {}), // Start the server
	).Run()
}

// openDB connects to the sqlite file, retrying until it answers or the
// connect timeout runs out.
func openDB(ctx context.Context, cfg config) (*sqlx.DB, error) {
	dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	b := retry.WithMaxDuration(cfg.ConnectTimeout, retry.NewFibonacci(250*time.Millisecond))
	if err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := dbx.PingContext(ctx); err != nil {
			slog.Warn("database not ready", "error", err)
			return retry.RetryableError(err)
		}

		return nil
	}); err != nil {
		dbx.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	return dbx, nil
}
