package internal

import (
	tea "github.com/charmbracelet/bubbletea"

	"relaychat/internal/storage"
)

// RunClient launches the TUI and blocks until it exits. A nil store disables
// the local transcript.
func RunClient(serverURL, room, username, profileImage string, store *storage.Store) error {
	program := tea.NewProgram(NewTUIModel(serverURL, room, username, profileImage, store))
	_, err := program.Run()
	return err
}
