package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/api"
	"github.com/xraph/lanes/config"
	"github.com/xraph/lanes/cron"
	"github.com/xraph/lanes/engine"
	"github.com/xraph/lanes/handlers"
	"github.com/xraph/lanes/notify"
	"github.com/xraph/lanes/stream"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the manager, its workers and the admin HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending store migrations before starting")
	return cmd
}

func runServe(ctx context.Context, migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = closeStore() }()

	if migrate {
		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	broker := stream.NewBroker(logger)
	m, err := engine.New(st,
		engine.WithConfig(cfg.Lanes()),
		engine.WithLogger(logger),
		engine.WithThrottle(cfg.Throttles()...),
		engine.WithPrometheus(prometheus.DefaultRegisterer),
		engine.WithExtension(broker),
	)
	if err != nil {
		return err
	}
	registerHandlers(m, cfg, logger)
	if cfg.NotifyURL != "" {
		m.Extensions().Register(notify.New(m, cfg.NotifyURL,
			notify.WithEvents(notifyEvents(cfg)...),
			notify.WithLogger(logger),
		))
	}

	if err := m.Start(ctx); err != nil {
		return fmt.Errorf("start manager: %w", err)
	}
	for _, pool := range cfg.Workers {
		if _, err := m.RegisterWorker(pool.Name, pool.Types, pool.Concurrency); err != nil {
			_ = m.Shutdown(0)
			return fmt.Errorf("worker %q: %w", pool.Name, err)
		}
	}

	sched := cron.NewScheduler(m, cron.WithLogger(logger))
	for _, e := range cfg.Cron {
		if err := sched.Add(e.Name, e.Schedule, e.JobType, e.Payload); err != nil {
			_ = m.Shutdown(0)
			return fmt.Errorf("cron %q: %w", e.Name, err)
		}
	}

	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: api.New(m,
			api.WithToken(cfg.APIToken),
			api.WithLogger(logger),
			api.WithHealthCheck(st.Ping),
			api.WithEventStream(broker),
			api.WithScheduler(sched),
		).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var g run.Group

	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	g.Add(func() error {
		logger.Info("http server started", slog.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})

	if len(cfg.Cron) > 0 {
		cronCtx, cancelCron := context.WithCancel(ctx)
		g.Add(func() error {
			return sched.Run(cronCtx)
		}, func(error) {
			cancelCron()
		})
	}

	stopped := make(chan struct{})
	g.Add(func() error {
		<-stopped
		return nil
	}, func(error) {
		logger.Info("draining jobs", slog.Duration("grace", cfg.ShutdownGrace))
		switch err := m.Shutdown(cfg.ShutdownGrace); {
		case errors.Is(err, lanes.ErrDrainTimeout):
			logger.Warn("grace period elapsed; in-flight jobs will be reclaimed on restart")
		case err != nil:
			logger.Error("shutdown", slog.String("error", err.Error()))
		}
		close(stopped)
	})

	err = g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) {
		logger.Info("received signal", slog.String("signal", sig.Signal.String()))
		return nil
	}
	return err
}

// registerHandlers installs the built-in handlers. email.send is only
// available when an SMTP host is configured.
func registerHandlers(m *engine.Manager, cfg *config.Config, logger *slog.Logger) {
	wh := handlers.NewWebhook(cfg.WebhookSecret,
		handlers.WithHTTPClient(&http.Client{Timeout: cfg.WebhookTimeout}),
	)
	engine.Register(m, wh.Definition())

	if cfg.SMTPHost == "" {
		logger.Info("SMTP not configured; email.send disabled")
		return
	}
	engine.Register(m, handlers.NewEmail(handlers.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		TLS:      cfg.SMTPTLS,
	}).Definition())
}

func notifyEvents(cfg *config.Config) []string {
	if len(cfg.NotifyEvents) == 0 {
		return notify.Events()
	}
	return cfg.NotifyEvents
}
