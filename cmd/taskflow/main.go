package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/taskflow/internal/accounts"
	"github.com/mtlprog/taskflow/internal/app"
	"github.com/mtlprog/taskflow/internal/config"
	"github.com/mtlprog/taskflow/internal/database"
	"github.com/mtlprog/taskflow/internal/handler"
	"github.com/mtlprog/taskflow/internal/logger"
)

func main() {
	cliApp := &cli.App{
		Name:  "taskflow",
		Usage: "Task manager with transactional domain events",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:     "database-url",
				Aliases:  []string{"d"},
				Value:    config.DefaultDatabaseURL,
				Usage:    "PostgreSQL database URL",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
					&cli.StringFlag{
						Name:     "jwt-secret",
						Usage:    fmt.Sprintf("HMAC secret for access tokens (at least %d characters)", accounts.MinSecretLength),
						EnvVars:  []string{"JWT_SECRET"},
						Required: true,
					},
					&cli.DurationFlag{
						Name:    "token-lifetime",
						Value:   config.DefaultTokenLifetime,
						Usage:   "Access token lifetime",
						EnvVars: []string{"TOKEN_LIFETIME"},
					},
					&cli.IntFlag{
						Name:    "bcrypt-cost",
						Value:   config.DefaultBcryptCost,
						Usage:   "bcrypt work factor for password hashes",
						EnvVars: []string{"BCRYPT_COST"},
					},
				},
				Action: runServe,
			},
			{
				Name:  "migrate",
				Usage: "Manage the database schema",
				Subcommands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "Apply all pending migrations",
						Action: runMigrateUp,
					},
					{
						Name:   "down",
						Usage:  "Roll back the most recent migration",
						Action: runMigrateDown,
					},
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func runServe(c *cli.Context) error {
	ctx := c.Context

	port := c.String("port")
	if port == "" {
		port = config.DefaultPort
	}

	db, err := database.New(ctx, c.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	modules, err := app.NewPostgres(db, app.Config{
		JWTSecret:     c.String("jwt-secret"),
		TokenLifetime: c.Duration("token-lifetime"),
		BcryptCost:    c.Int("bcrypt-cost"),
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to wire modules: %w", err)
	}

	mux := http.NewServeMux()
	handler.New(db, modules).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, config.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runMigrateUp(c *cli.Context) error {
	return withDatabase(c, database.RunMigrations)
}

func runMigrateDown(c *cli.Context) error {
	return withDatabase(c, database.RollbackMigration)
}

func withDatabase(c *cli.Context, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	ctx := c.Context

	db, err := database.New(ctx, c.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(ctx, db.Pool())
}
