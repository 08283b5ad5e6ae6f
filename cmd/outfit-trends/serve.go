package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jalshrestha/Outfit/internal/api"
	"github.com/jalshrestha/Outfit/internal/scheduler"
	"github.com/spf13/cobra"
)

var (
	servePort      int
	serveScheduler bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the trending outfit API server",
	Long:  `Start the HTTP server under /api/trending. The refresh scheduler runs alongside it when enabled.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveScheduler, "scheduler", false, "Enable the refresh scheduler (overrides SCHEDULER_ENABLED)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("scheduler") {
		cfg.Scheduler.Enabled = serveScheduler
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := newApp(ctx, cfg, logger, true)
	defer a.Close()

	var classifier api.ImageClassifier
	if a.classifier != nil {
		classifier = a.classifier
	}

	handlers := api.NewHandlers(a.service, classifier, logger)
	router := api.NewRouter(handlers, api.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(a.service, scheduler.Config{
			Interval:   cfg.Scheduler.Interval,
			MaxResults: cfg.Scheduler.MaxResults,
			RunOnStart: cfg.Scheduler.RunOnStart,
		})
		go sched.Start(ctx)
	} else {
		logger.Info("refresh scheduler disabled")
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting",
		"addr", server.Addr,
		"cache", a.cache.Path(),
		"scheduler", cfg.Scheduler.Enabled,
		"classifier", a.classifier != nil)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone

	logger.Info("server stopped")
	return nil
}
