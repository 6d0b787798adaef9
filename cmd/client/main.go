package main

import (
	"flag"
	"fmt"
	"os"

	"relaychat/internal/app"
)

func main() {
	defaultServer := envOrDefault("RELAYCHAT_SERVER", "ws://localhost:8080/ws")
	defaultUser := envOrDefault("RELAYCHAT_USER", "")

	serverURL := flag.String("server", defaultServer, "server websocket URL (e.g., ws://localhost:8080/ws)")
	username := flag.String("name", defaultUser, "display name other members see")
	avatar := flag.String("avatar", "", "profile image URL shown to other members")
	db := flag.String("db", envOrDefault("RELAYCHAT_DB_PATH", app.DefaultHistoryPath()), "local transcript path (empty disables history)")
	flag.Parse()

	var room string
	if args := flag.Args(); len(args) >= 1 {
		room = args[0]
	}

	cfg := app.ClientConfig{
		ServerURL:    *serverURL,
		Room:         room,
		Username:     *username,
		ProfileImage: *avatar,
		HistoryPath:  *db,
	}

	if err := app.RunClient(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
