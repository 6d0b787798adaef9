package app

import (
	"os"
	"path/filepath"
	"runtime"
)

// ServerConfig defines how the HTTP/WebSocket relay should run.
type ServerConfig struct {
	Addr string
	Path string
}

// ClientConfig defines the parameters the TUI client needs.
type ClientConfig struct {
	ServerURL    string
	Room         string
	Username     string
	ProfileImage string
	HistoryPath  string
}

// DefaultHistoryPath returns a per-user data path for the local transcript
// database.
func DefaultHistoryPath() string {
	if env := os.Getenv("RELAYCHAT_DB_PATH"); env != "" {
		return env
	}
	if env := os.Getenv("RELAYCHAT_DATA_DIR"); env != "" {
		return filepath.Join(env, "relaychat.db")
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "relaychat", "relaychat.db")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "RelayChat", "relaychat.db")
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "RelayChat", "relaychat.db")
		}
		return filepath.Join(home, ".local", "share", "relaychat", "relaychat.db")
	}
	return filepath.Join(".", ".relaychat", "relaychat.db")
}

// NormalizeWSPath guarantees the websocket path starts with '/' and falls
// back to /ws when empty.
func NormalizeWSPath(path string) string {
	if path == "" {
		return "/ws"
	}
	if path[0] != '/' {
		return "/" + path
	}
	return path
}
