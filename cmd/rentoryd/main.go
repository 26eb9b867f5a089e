package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rentory/rentory/internal/logger"
	"github.com/rentory/rentory/internal/server"
	"github.com/rentory/rentory/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	initConfig := flag.Bool("init-config", false, "Write a default config file and exit")

	// Flag overrides take precedence over file and environment values
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (overrides config)")
	storeType := flag.String("store", "", "Store backend: file, memory, badger (overrides config)")

	flag.Parse()

	if *initConfig {
		path, err := config.InitConfig(false)
		if err != nil {
			log.Fatalf("Failed to initialize config: %v", err)
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *storeType != "" {
		cfg.Store.Type = *storeType
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure logger: %v", err)
	}

	// Cancellable context drives graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Println("Rentory - Inventory Rental Server")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	st, err := config.CreateStore(ctx, &cfg.Store)
	if err != nil {
		log.Fatalf("Failed to create store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("Error closing store: %v", err)
		}
	}()

	serverConfig := server.Config{
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CommandRate:     cfg.Server.CommandRate,
		CommandBurst:    cfg.Server.CommandBurst,
	}

	logger.Info("Server configuration:")
	logger.Info("  Port: %d", serverConfig.Port)
	logger.Info("  Store: %s", cfg.Store.Type)
	logger.Info("  Shutdown timeout: %v", serverConfig.ShutdownTimeout)

	srv := server.New(serverConfig, st)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on port %d. Press Ctrl+C to stop.", serverConfig.Port)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}
}
