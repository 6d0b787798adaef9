package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"relaychat/internal/app"
)

const (
	modeServer = "server"
	modeClient = "client"
	modeLocal  = "local"
)

func main() {
	mode, args := parseMode(os.Args[1:])
	flagSet := flag.NewFlagSet("relaychat", flag.ExitOnError)
	addr := flagSet.String("addr", envOrDefault("RELAYCHAT_ADDR", defaultAddrForMode(mode)), "server listen address")
	path := flagSet.String("path", envOrDefault("RELAYCHAT_PATH", "/ws"), "websocket path")
	serverURL := flagSet.String("server-url", envOrDefault("RELAYCHAT_SERVER", "ws://localhost:8080/ws"), "server websocket URL (client mode)")
	username := flagSet.String("user", envOrDefault("RELAYCHAT_USER", ""), "display name other members see")
	avatar := flagSet.String("avatar", "", "profile image URL shown to other members")
	db := flagSet.String("db", envOrDefault("RELAYCHAT_DB_PATH", ""), "local transcript path (defaults to a per-user path)")
	quiet := flagSet.Bool("quiet", false, "suppress informational logs")
	flagSet.Parse(args)

	room := ""
	if remaining := flagSet.Args(); len(remaining) > 0 {
		room = remaining[0]
	}

	serverCfg := app.ServerConfig{
		Addr: *addr,
		Path: app.NormalizeWSPath(*path),
	}

	clientCfg := app.ClientConfig{
		ServerURL:    *serverURL,
		Room:         room,
		Username:     *username,
		ProfileImage: *avatar,
		HistoryPath:  *db,
	}
	if clientCfg.HistoryPath == "" {
		clientCfg.HistoryPath = app.DefaultHistoryPath()
	}

	infof := func(format string, args ...interface{}) {
		if *quiet {
			return
		}
		log.Printf(format, args...)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch mode {
	case modeServer:
		err = runServerMode(ctx, serverCfg, infof)
	case modeLocal:
		err = runLocalMode(ctx, serverCfg, clientCfg, infof)
	default:
		err = runClientMode(clientCfg)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "relaychat: %v\n", err)
		os.Exit(1)
	}
}

func runServerMode(ctx context.Context, cfg app.ServerConfig, infof func(string, ...interface{})) error {
	handle, err := app.RunServer(ctx, cfg)
	if err != nil {
		return err
	}
	infof("RelayChat server listening on %s (ws path %s)", handle.Addr(), cfg.Path)
	return handle.Wait()
}

func runClientMode(cfg app.ClientConfig) error {
	if cfg.ServerURL == "" {
		return errors.New("client mode requires --server-url or RELAYCHAT_SERVER")
	}
	return app.RunClient(cfg)
}

// runLocalMode starts an embedded relay on a loopback port and points the TUI
// at it. The client and the server's exit path run in one errgroup so a
// failure on either side tears down the other.
func runLocalMode(ctx context.Context, serverCfg app.ServerConfig, clientCfg app.ClientConfig, infof func(string, ...interface{})) error {
	handle, err := app.RunServer(ctx, serverCfg)
	if err != nil {
		return err
	}

	infof("Starting local RelayChat server on %s", handle.Addr())
	if err := waitForServer(handle.Addr(), 5*time.Second); err != nil {
		stopServer(handle)
		return err
	}

	clientCfg.ServerURL = buildWebsocketURL(handle.Addr(), serverCfg.Path)
	infof("Launching client against %s", clientCfg.ServerURL)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer stopServer(handle)
		return app.RunClient(clientCfg)
	})
	group.Go(func() error {
		return handle.Wait()
	})
	group.Go(func() error {
		<-groupCtx.Done()
		stopServer(handle)
		return nil
	})
	return group.Wait()
}

func waitForServer(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("server did not become ready: %w", err)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func buildWebsocketURL(addr, path string) string {
	path = app.NormalizeWSPath(path)
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Sprintf("ws://%s%s", addr, path)
	}
	return fmt.Sprintf("ws://%s%s", net.JoinHostPort(host, port), path)
}

func parseMode(args []string) (string, []string) {
	if len(args) == 0 {
		return modeClient, args
	}
	switch strings.ToLower(args[0]) {
	case modeServer, modeClient, modeLocal:
		return strings.ToLower(args[0]), args[1:]
	}
	return modeClient, args
}

func defaultAddrForMode(mode string) string {
	if mode == modeLocal {
		return "127.0.0.1:0"
	}
	return ":8080"
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func stopServer(handle *app.ServerHandle) {
	if handle == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = handle.Stop(shutdownCtx)
}
