package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"booking-service/internal/app"
	"booking-service/internal/booking"
	"booking-service/internal/calendar"
	"booking-service/internal/config"
	"booking-service/internal/jobs"
	"booking-service/internal/server"
	"booking-service/internal/store"
)

func main() {
	a := &cli.App{
		Name:  "booking-service",
		Usage: "Meeting availability and booking API.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			reapCommand(),
			bookCommand(),
		},
	}

	if err := a.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "migrate", Usage: "Apply the database schema before serving."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := config.NewLogger(os.Stderr, cfg.LogLevel)

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg, logger, c.Bool("migrate"))
			if err != nil {
				return err
			}
			defer st.Close()

			provider, err := newCalendarProvider(ctx, cfg, logger)
			if err != nil {
				return err
			}

			var invites booking.InviteScheduler
			if cfg.RedisURL != "" {
				queue, err := jobs.NewQueue(cfg.RedisURL, jobs.QueueOptions{Delay: cfg.InviteRetryDelay, MaxRetry: cfg.InviteMaxRetry})
				if err != nil {
					return err
				}
				defer queue.Close()
				invites = queue
			}

			svc := booking.NewService(booking.Options{
				Directory:       cfg.Directory,
				Store:           st,
				Calendar:        provider,
				Invites:         invites,
				Logger:          logger,
				SlotMinutes:     cfg.SlotMinutes,
				CalendarTimeout: cfg.CalendarTimeout,
			})

			if cfg.ReaperInterval > 0 {
				go booking.NewReaper(st, cfg.ReaperInterval, logger).Run(ctx)
			}

			if cfg.RedisURL != "" {
				worker, err := jobs.NewWorker(cfg.RedisURL, cfg.WorkerConcurrency, svc, logger)
				if err != nil {
					return err
				}
				go func() {
					if err := worker.Run(ctx); err != nil {
						logger.Error("Invite worker stopped", "error", err)
					}
				}()
			}

			gin.SetMode(gin.ReleaseMode)
			appInstance := &app.App{Service: svc, Logger: logger}
			router := appInstance.Router(app.RouterOptions{JWTSecret: cfg.JWTSecret, StaticTokens: cfg.StaticTokens})
			return server.Run(ctx, router, cfg.Port, logger)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply the database schema.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL required")
			}
			logger := config.NewLogger(os.Stderr, cfg.LogLevel)
			st, err := openStore(c.Context, cfg, logger, true)
			if err != nil {
				return err
			}
			st.Close()
			logger.Info("Schema applied")
			return nil
		},
	}
}

func reapCommand() *cli.Command {
	return &cli.Command{
		Name:  "reap",
		Usage: "Fail requested meetings that were never confirmed and release their time.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL required")
			}
			logger := config.NewLogger(os.Stderr, cfg.LogLevel)
			st, err := openStore(c.Context, cfg, logger, false)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := booking.NewReaper(st, cfg.ReaperInterval, logger).RunOnce(c.Context)
			if err != nil {
				return err
			}
			fmt.Printf("reaped %d abandoned meetings\n", n)
			return nil
		},
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (store.Store, error) {
	opts := store.Options{AbandonAfter: cfg.AbandonAfter}
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, meetings are kept in memory only")
		return store.NewMemory(opts), nil
	}
	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
	}
	return pg, nil
}

func newCalendarProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (calendar.Provider, error) {
	switch cfg.CalendarProvider {
	case "google":
		return calendar.NewGoogle(ctx, logger, cfg.Google)
	case "caldav":
		return calendar.NewCalDAV(logger, cfg.CalDAV)
	case "link":
		return calendar.NewLinkTemplate(cfg.LinkTemplate)
	default:
		logger.Warn("No calendar provider configured, invites will stay pending")
		return calendar.Disabled{}, nil
	}
}
