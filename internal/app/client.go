package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	intrnl "relaychat/internal"
	"relaychat/internal/storage"
)

// RunClient opens the local transcript store and launches the Bubble Tea TUI
// with the provided configuration. An empty HistoryPath runs without a
// transcript.
func RunClient(cfg ClientConfig) error {
	if cfg.ServerURL == "" {
		return errors.New("server URL is required")
	}

	var store *storage.Store
	if cfg.HistoryPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.HistoryPath), 0o700); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		opened, err := storage.NewStore(cfg.HistoryPath)
		if err != nil {
			return fmt.Errorf("open transcript store: %w", err)
		}
		if err := opened.Migrate(context.Background()); err != nil {
			_ = opened.Close()
			return fmt.Errorf("migrate transcript store: %w", err)
		}
		store = opened
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("transcript store close error: %v", err)
			}
		}()
	}

	return intrnl.RunClient(cfg.ServerURL, cfg.Room, cfg.Username, cfg.ProfileImage, store)
}
