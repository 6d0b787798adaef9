package internal

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// slash commands available while chatting
func (model *TUIModel) runCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	command := strings.ToLower(fields[0])
	args := fields[1:]

	switch command {
	case "/join":
		if len(args) == 0 {
			model.addNotice("usage: /join <room>")
			return model, nil
		}
		return model, model.joinRoomCmd(args[0])

	case "/leave":
		if model.room == "" {
			model.addNotice("not in a room")
			return model, nil
		}
		room := model.room
		model.room = ""
		model.members = nil
		model.typingUser = TypingNotice{}
		model.enterRoomPrompt()
		return model, model.emitCmd(EventLeaveRoom, LeaveRequest{Room: room})

	case "/who":
		if len(model.members) == 0 {
			model.addNotice("nobody here")
			return model, nil
		}
		names := make([]string, len(model.members))
		for i, member := range model.members {
			names[i] = member.UserName
		}
		model.addNotice("in " + model.room + ": " + strings.Join(names, ", "))
		return model, nil

	case "/rooms":
		if len(model.roomsListing) == 0 {
			model.addNotice("no active rooms")
			return model, nil
		}
		names := make([]string, 0, len(model.roomsListing))
		for name, members := range model.roomsListing {
			names = append(names, fmt.Sprintf("%s (%d)", name, len(members)))
		}
		sort.Strings(names)
		model.addNotice("active rooms: " + strings.Join(names, ", "))
		return model, nil

	case "/help":
		model.addNotice("commands: /join <room>, /leave, /who, /rooms, /quit")
		return model, nil

	case "/quit":
		model.closeConn()
		return model, tea.Quit
	}

	model.addNotice("unknown command " + command + " (try /help)")
	return model, nil
}
