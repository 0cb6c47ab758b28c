// filename: cmd/adminapi/main.go
// MailGuard Admin API Service - Entry Point

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mailguard/mailguard/internal/adminapi/routes"
	"github.com/mailguard/mailguard/internal/adminapi/server"
	"github.com/mailguard/mailguard/internal/common/config"
	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/common/nats"
	"github.com/mailguard/mailguard/internal/common/pg"
	"github.com/mailguard/mailguard/internal/endpoints"
	"github.com/mailguard/mailguard/internal/guard"
	"github.com/mailguard/mailguard/internal/rulestore"
)

var (
	configPath = flag.String("config", "", "Path to configuration file")
	version    = "1.0.0"
)

func main() {
	flag.Parse()

	fmt.Printf("MailGuard Admin API v%s\n", version)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Info("Starting MailGuard Admin API")

	natsClient, err := nats.NewClient(nats.Config{
		URLs:        cfg.NATS.URLs,
		ClusterID:   cfg.NATS.ClusterID,
		ClientID:    cfg.NATS.ClientID + "-adminapi",
		Credentials: cfg.NATS.Credentials,
		NKeySeed:    cfg.NATS.NKeySeed,
		Timeout:     cfg.NATS.Timeout,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize NATS client")
	}
	defer natsClient.Close()

	pgClient, err := pg.NewClient(pg.Config{
		Host:            cfg.PostgreSQL.Host,
		Port:            cfg.PostgreSQL.Port,
		Database:        cfg.PostgreSQL.Database,
		Username:        cfg.PostgreSQL.Username,
		Password:        cfg.PostgreSQL.Password,
		SSLMode:         cfg.PostgreSQL.SSLMode,
		MaxOpenConns:    cfg.PostgreSQL.MaxOpenConns,
		MaxIdleConns:    cfg.PostgreSQL.MaxIdleConns,
		ConnMaxLifetime: cfg.PostgreSQL.ConnMaxLifetime,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// Хранилища: мутации через API сбрасывают кэш активных правил,
	// чтобы guard увидел изменения после истечения TTL
	pgStore := rulestore.NewPostgresStore(pgClient, logger)
	store := rulestore.NewCachedStore(pgStore, redisClient, cfg.Redis.CacheTTL, logger)
	endpointStore := endpoints.NewPostgresStore(pgClient, logger)

	aiClient := guard.NewOpenAIClient(guard.OpenAIConfig{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Timeout:     cfg.AI.Timeout,
		MaxBodySize: cfg.AI.MaxBodySize,
	})
	evaluator := guard.NewEvaluator(aiClient, logger)
	generator := guard.NewGenerator(aiClient)

	srv := server.NewServer(cfg, logger, server.Handlers{
		Health:    routes.NewHealthHandler(logger, pgClient, natsClient),
		Rules:     routes.NewRulesHandler(logger, store, endpointStore, evaluator, generator),
		Endpoints: routes.NewEndpointsHandler(logger, endpointStore),
	})

	go func() {
		if err := srv.Start(); err != nil {
			logger.WithError(err).Fatal("Admin API server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Admin API...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
