// filename: cmd/delivery/main.go
// MailGuard Delivery Service - Entry Point

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mailguard/mailguard/internal/common/config"
	"github.com/mailguard/mailguard/internal/common/logging"
	"github.com/mailguard/mailguard/internal/common/nats"
	"github.com/mailguard/mailguard/internal/delivery"
)

var (
	configPath = flag.String("config", "", "Path to configuration file")
	version    = "1.0.0"
)

func main() {
	flag.Parse()

	fmt.Printf("MailGuard Delivery Service v%s\n", version)

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

	logger.Info("Starting MailGuard Delivery Service")

	natsClient, err := nats.NewClient(nats.Config{
		URLs:        cfg.NATS.URLs,
		ClusterID:   cfg.NATS.ClusterID,
		ClientID:    cfg.NATS.ClientID + "-delivery",
		Credentials: cfg.NATS.Credentials,
		NKeySeed:    cfg.NATS.NKeySeed,
		Timeout:     cfg.NATS.Timeout,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize NATS client")
	}
	defer natsClient.Close()

	deliveryService := delivery.NewService(cfg, logger, natsClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := deliveryService.Start(ctx); err != nil {
			logger.WithError(err).Error("Delivery service error")
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down Delivery Service")
	cancel()
	deliveryService.Stop()
}
