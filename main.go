package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"karyoscore/internal/config"
	"karyoscore/internal/container"
	"karyoscore/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	logger := appContainer.Logger
	if err := appContainer.InitWithDatabase(context.Background()); err != nil {
		logger.Error("Failed to initialize database: %v", err)
		os.Exit(1)
	}

	server, err := ui.NewServer(
		appContainer.Analysis,
		appContainer.Batches,
		appContainer.Runs,
		appContainer.Metrics,
		logger,
		ui.Options{
			UploadMaxBytes: appConfig.Server.UploadMaxBytes,
			ReadTimeout:    appConfig.Server.ReadTimeout,
		},
	)
	if err != nil {
		logger.Error("Failed to create server: %v", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(net.JoinHostPort("", appConfig.Server.Port))
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed: %v", err)
		}
	case sig := <-stop:
		logger.Info("Received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("Shutdown: %v", err)
		}
	}
}
