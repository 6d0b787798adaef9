package internal

import (
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"relaychat/internal/storage"
)

// tui model for the terminal chat client
type TUIModel struct {
	textInput textinput.Model
	mode      appMode

	serverURL    string
	username     string
	room         string
	profileImage string
	socketID     string

	conn    *websocket.Conn
	writeMu sync.Mutex
	events  chan Event

	messages     []ChatMessage
	members      []Member
	roomsListing RoomListing
	typingUser   TypingNotice
	notices      []string

	connected bool
	connErr   error

	// typing debounce: the first keystroke emits user_start_typing, and the
	// stop signal fires only when no keystroke followed for the idle window.
	isTyping  bool
	typingSeq int

	store *storage.Store
}

type appMode int

const (
	modeNamePrompt appMode = iota
	modeRoomPrompt
	modeChat
)

const maxNotices = 5

// NewTUIModel builds the client model. The store may be nil, in which case no
// local transcript is kept.
func NewTUIModel(serverURL, room, username, profileImage string, store *storage.Store) *TUIModel {
	input := textinput.New()
	input.CharLimit = 0
	input.Focus()

	if username == "" {
		username = defaultUsername()
	}

	model := &TUIModel{
		textInput:    input,
		serverURL:    serverURL,
		room:         room,
		username:     username,
		profileImage: profileImage,
		events:       make(chan Event, 64),
		messages:     make([]ChatMessage, 0, 64),
		roomsListing: RoomListing{},
		store:        store,
	}
	model.enterNamePrompt()
	return model
}

func defaultUsername() string {
	if user := os.Getenv("RELAYCHAT_USER"); user != "" {
		return user
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "anon"
}

func (model *TUIModel) Init() tea.Cmd {
	return model.connectCmd()
}

func (model *TUIModel) enterNamePrompt() {
	model.mode = modeNamePrompt
	model.textInput.SetValue(model.username)
	model.textInput.Placeholder = "Enter display name…"
	model.textInput.Prompt = "name> "
}

func (model *TUIModel) enterRoomPrompt() {
	model.mode = modeRoomPrompt
	model.textInput.SetValue(model.room)
	model.textInput.Placeholder = "Enter room name…"
	model.textInput.Prompt = "room> "
}

func (model *TUIModel) enterChat() {
	model.mode = modeChat
	model.textInput.SetValue("")
	model.textInput.Placeholder = "Type a message…  (/help for commands)"
	model.textInput.Prompt = "> "
}

func (model *TUIModel) addNotice(line string) {
	model.notices = append(model.notices, line)
	if len(model.notices) > maxNotices {
		model.notices = model.notices[len(model.notices)-maxNotices:]
	}
}

// upsertMessage reconciles an incoming record with the optimistic local copy
// by messageId, so the sender's own echo never duplicates a line.
func (model *TUIModel) upsertMessage(msg ChatMessage) bool {
	for i := range model.messages {
		if model.messages[i].MessageID == msg.MessageID {
			if model.messages[i].Status.Before(msg.Status) {
				model.messages[i].Status = msg.Status
			}
			return false
		}
	}
	model.messages = append(model.messages, msg)
	return true
}

func (model *TUIModel) setMessageStatus(messageID string, status Status) {
	for i := range model.messages {
		if model.messages[i].MessageID == messageID && model.messages[i].Status.Before(status) {
			model.messages[i].Status = status
		}
	}
}

// applySeen mirrors the server's coarse seen marker on the local set.
func (model *TUIModel) applySeen(room, seenBy string) {
	for i := range model.messages {
		msg := &model.messages[i]
		if msg.Room == room && msg.SenderID != seenBy && msg.Status.Before(StatusSeen) {
			msg.Status = StatusSeen
		}
	}
}
