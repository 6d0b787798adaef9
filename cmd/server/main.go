package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"relaychat/internal/app"
)

func main() {
	addr := flag.String("addr", envOrDefault("RELAYCHAT_ADDR", ":8080"), "server listen address")
	path := flag.String("path", envOrDefault("RELAYCHAT_PATH", "/ws"), "websocket path")
	flag.Parse()

	cfg := app.ServerConfig{
		Addr: *addr,
		Path: app.NormalizeWSPath(*path),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle, err := app.RunServer(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "relaychat-server: %v\n", err)
		os.Exit(1)
	}
	log.Printf("RelayChat server listening on %s (ws path %s)", handle.Addr(), cfg.Path)

	if err := handle.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "relaychat-server: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
