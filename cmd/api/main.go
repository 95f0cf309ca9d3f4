package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"petrovrp/internal/api"
	"petrovrp/internal/auth"
	"petrovrp/internal/broker"
	"petrovrp/internal/config"
	"petrovrp/internal/logger"
	"petrovrp/internal/metrics"
	"petrovrp/internal/service"
	"petrovrp/internal/store"
	"petrovrp/internal/webhooks"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings, loadedEnv, err := config.LoadSettings()
	if initErr := logger.Init(settings.LogLevel); initErr != nil {
		panic(initErr)
	}
	defer logger.Sync()
	if !loadedEnv {
		logger.Infof(ctx, "No .env file found (using environment variables)")
	}
	if err != nil {
		logger.Fatal(ctx, err)
	}
	metrics.RegisterDefault()

	st, err := store.Open(ctx, settings.Store, settings.OutputDir, settings.DatabaseURL)
	if err != nil {
		logger.Fatal(ctx, err)
	}
	ready := map[string]api.Pinger{}
	if p, ok := st.(*store.Postgres); ok {
		defer p.Close()
		ready["postgres"] = p
	}

	var b broker.EventBroker = broker.NewMemory()
	if settings.RedisURL != "" {
		rb, err := broker.NewRedis(settings.RedisURL)
		if err != nil {
			logger.Warnf(ctx, "redis broker unavailable, using in-memory: %v", err)
		} else {
			defer rb.Close()
			b = rb
			ready["redis"] = rb
		}
	}

	verifier, err := auth.NewVerifier(settings.AuthMode, settings.AuthSecret)
	if err != nil {
		logger.Fatal(ctx, err)
	}

	notifier := webhooks.NewNotifier(settings.WebhookURLs, settings.WebhookSecret)
	svc := &service.Instances{Store: st, Broker: b, Parallelism: settings.Parallelism}
	if notifier.Enabled() {
		notifier.Start(ctx)
		svc.Notifier = notifier
	}

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           (&api.Server{Instances: svc, Broker: b, Settings: settings, Auth: verifier, Ready: ready}).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof(ctx, "API listening on %s (store=%s)", srv.Addr, settings.Store)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(ctx, err)
	}
	if notifier.Enabled() {
		notifier.Wait()
	}
}
