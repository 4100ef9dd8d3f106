package main

import (
	"context"
	"fmt"
	"os"

	"karyoscore/internal/config"
	"karyoscore/internal/container"
	"karyoscore/internal/mcptools"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "karyoscore-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// stdout carries the protocol; history and metrics have no use here
	cfg.Database.Enabled = false
	cfg.Metrics.Enabled = false
	cfg.Log.Format = "json"

	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer c.Shutdown(context.Background())

	return server.ServeStdio(mcptools.NewServer(c.Analysis))
}
