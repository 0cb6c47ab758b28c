// filename: cmd/guard/main.go
// MailGuard Guard Service - Entry Point

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/mailguard/mailguard/internal/common/ch"
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
	seedPath   = flag.String("seed", "", "Path to seed rules YAML file")
	version    = "1.0.0"
)

func main() {
	flag.Parse()

	fmt.Printf("MailGuard Guard Service v%s\n", version)

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

	logger.Info("Starting MailGuard Guard Service")

	natsClient, err := nats.NewClient(nats.Config{
		URLs:        cfg.NATS.URLs,
		ClusterID:   cfg.NATS.ClusterID,
		ClientID:    cfg.NATS.ClientID + "-guard",
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

	chClient, err := ch.NewClient(ch.Config{
		Hosts:    cfg.ClickHouse.Hosts,
		Database: cfg.ClickHouse.Database,
		Username: cfg.ClickHouse.Username,
		Password: cfg.ClickHouse.Password,
		Port:     cfg.ClickHouse.Port,
		Secure:   cfg.ClickHouse.Secure,
		Compress: cfg.ClickHouse.Compress,
		Timeout:  cfg.ClickHouse.Timeout,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize ClickHouse client")
	}
	defer chClient.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// Хранилища
	pgStore := rulestore.NewPostgresStore(pgClient, logger)
	store := rulestore.NewCachedStore(pgStore, redisClient, cfg.Redis.CacheTTL, logger)
	endpointStore := endpoints.NewPostgresStore(pgClient, logger)

	// Предустановленные правила
	if *seedPath != "" {
		created, err := rulestore.LoadSeedRules(context.Background(), *seedPath, store, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load seed rules")
		}
		logger.WithField("created", created).Info("Seed rules loaded")
	}

	// Движок оценки
	aiClient := guard.NewOpenAIClient(guard.OpenAIConfig{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Timeout:     cfg.AI.Timeout,
		MaxBodySize: cfg.AI.MaxBodySize,
	})
	evaluator := guard.NewEvaluator(aiClient, logger)
	resolver := guard.NewActionResolver(endpointStore)

	guardService := guard.NewService(cfg, logger, natsClient, store, evaluator, resolver, chClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := guardService.Start(ctx); err != nil {
			logger.WithError(err).Error("Guard service error")
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down Guard Service")
	cancel()
	guardService.Stop()
}
