package main

import (
	"context"
	"github.com/caarlos0/env/v6"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"log"
	"messagely/internal/auth"
	"messagely/internal/messages"
	"messagely/internal/metrics"
	"messagely/internal/server"
	"messagely/internal/storage"
	"messagely/internal/users"
	"os"
	"time"
)

func newLogger() (*zap.Logger, error) {
	if os.Getenv("LOG_MODE") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	logger, err := newLogger()
	if err != nil {
		log.Fatalf("cannot create zap logger: %v", err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()
	sugar.Info("Application is starting")

	sugar.Info("Current time:", time.Now())

	serverCfg := server.EnvConfig{}
	if err := env.Parse(&serverCfg); err != nil {
		sugar.Fatalf("Cannot parse server env config: %v", err)
	}

	storageCfg := storage.Config{}
	if err := env.Parse(&storageCfg); err != nil {
		sugar.Fatalf("Cannot parse storage env config: %v", err)
	}

	authCfg := auth.EnvConfig{}
	if err := env.Parse(&authCfg); err != nil {
		sugar.Fatalf("Cannot parse auth env config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageCfg.ConnectTimeout)
	defer cancel()

	if err := storage.Migrate(ctx, sugar, storageCfg); err != nil {
		sugar.Fatalf("Cannot apply migrations: %v", err)
	}

	store, err := storage.New(ctx, sugar, storageCfg,
		storage.ConnectionTimeout(storageCfg.ConnectTimeout),
		storage.MaxConns(storageCfg.MaxConns),
	)
	if err != nil {
		sugar.Fatalf("Cannot create Store instance: %v", err)
	}

	hasher, err := auth.NewHasher(authCfg.WorkFactor)
	if err != nil {
		sugar.Fatalf("Cannot create password hasher: %v", err)
	}

	tokens, err := auth.NewTokens([]byte(authCfg.SecretKey), authCfg.TokenTTL)
	if err != nil {
		sugar.Fatalf("Cannot create token issuer: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := server.Deps{
		Auth:     auth.NewService(sugar, store, hasher, tokens),
		Tokens:   tokens,
		Messages: messages.NewService(sugar, store),
		Users:    users.NewService(store),
		Metrics:  metrics.NewCollector(reg),
		Gatherer: reg,
	}

	serverOpts := []server.Option{
		server.WithEnvConfig(serverCfg),
		server.RegisterAfterShutdown(store.Close),
	}

	srv, err := server.NewServer(sugar, deps, serverOpts...)
	if err != nil {
		sugar.Fatalf("Cannot create Server instance: %v", err)
	}

	if err := srv.Start(); err != nil {
		sugar.Fatalf("Cannot start http srv: %v", err)
	}
}
