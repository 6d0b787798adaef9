package internal

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"relaychat/internal/storage"
)

func (model *TUIModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMessage := message.(type) {
	case tea.KeyMsg:
		if typedMessage.Type == tea.KeyCtrlC {
			model.closeConn()
			return model, tea.Quit
		}
		return model.handleKey(typedMessage)

	case connectedMsg:
		model.conn = typedMessage.conn
		model.events = typedMessage.events
		model.connected = true
		model.connErr = nil
		return model, model.waitForEvent()

	case connectFailedMsg:
		model.connected = false
		model.connErr = typedMessage.err
		return model, model.scheduleReconnect()

	case disconnectedMsg:
		model.connected = false
		model.addNotice("connection lost, reconnecting…")
		return model, model.scheduleReconnect()

	case reconnectMsg:
		return model, model.connectCmd()

	case serverEventMsg:
		cmd := model.handleServerEvent(Event(typedMessage))
		return model, tea.Batch(cmd, model.waitForEvent())

	case typingIdleMsg:
		// only the latest armed timer may fire the stop signal
		if model.isTyping && typedMessage.seq == model.typingSeq {
			model.isTyping = false
			return model, model.emitCmd(EventStopTyping, TypingSignal{
				Name: model.username, Room: model.room, ProfileImage: model.profileImage,
			})
		}
		return model, nil

	case historyMsg:
		model.restoreHistory(typedMessage.messages)
		return model, nil

	case clientErrMsg:
		model.addNotice("error: " + typedMessage.err.Error())
		return model, nil
	}

	var cmd tea.Cmd
	model.textInput, cmd = model.textInput.Update(message)
	return model, cmd
}

func (model *TUIModel) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch model.mode {
	case modeNamePrompt:
		if key.Type == tea.KeyEnter {
			trimmed := strings.TrimSpace(model.textInput.Value())
			if trimmed == "" {
				model.addNotice("display name cannot be empty")
				return model, nil
			}
			model.username = trimmed
			model.enterRoomPrompt()
			return model, nil
		}

	case modeRoomPrompt:
		if key.Type == tea.KeyEnter {
			trimmed := strings.TrimSpace(model.textInput.Value())
			if trimmed == "" {
				model.addNotice("room name cannot be empty")
				return model, nil
			}
			return model, model.joinRoomCmd(trimmed)
		}
		if key.Type == tea.KeyEsc {
			model.enterNamePrompt()
			return model, nil
		}

	case modeChat:
		if key.Type == tea.KeyEnter {
			return model.submitInput()
		}
		if key.Type == tea.KeyEsc {
			return model, nil
		}
		// a content keystroke while connected counts as composing
		if model.connected && keyEditsText(key) {
			return model.noteTyping(key)
		}
	}

	var cmd tea.Cmd
	model.textInput, cmd = model.textInput.Update(key)
	return model, cmd
}

func keyEditsText(key tea.KeyMsg) bool {
	switch key.Type {
	case tea.KeyRunes, tea.KeySpace, tea.KeyBackspace, tea.KeyDelete:
		return true
	}
	return false
}

// noteTyping forwards the keystroke to the input and keeps the typing signal
// state machine in step: start on the first key, stop after the idle window.
func (model *TUIModel) noteTyping(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	var inputCmd tea.Cmd
	model.textInput, inputCmd = model.textInput.Update(key)

	model.typingSeq++
	cmds := []tea.Cmd{inputCmd, model.typingIdleCmd(model.typingSeq)}
	if !model.isTyping {
		model.isTyping = true
		cmds = append(cmds, model.emitCmd(EventStartTyping, TypingSignal{
			Name: model.username, Room: model.room, ProfileImage: model.profileImage,
		}))
	}
	return model, tea.Batch(cmds...)
}

func (model *TUIModel) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(model.textInput.Value())
	if text == "" {
		return model, nil
	}
	model.textInput.SetValue("")

	if strings.HasPrefix(text, "/") {
		return model.runCommand(text)
	}
	if !model.connected {
		model.addNotice("not connected")
		return model, nil
	}

	msg := ChatMessage{
		MessageID:    uuid.NewString(),
		Message:      text,
		Room:         model.room,
		SenderID:     model.socketID,
		SenderName:   model.username,
		ProfileImage: model.profileImage,
		Time:         time.Now().Format("15:04:05"),
		Status:       StatusSent,
	}
	// optimistic local echo; the relay's broadcast reconciles by messageId
	model.upsertMessage(msg)
	model.saveMessage(msg)

	cmds := []tea.Cmd{model.emitCmd(EventMessageSend, msg)}
	if model.isTyping {
		model.isTyping = false
		model.typingSeq++
		cmds = append(cmds, model.emitCmd(EventStopTyping, TypingSignal{
			Name: model.username, Room: model.room, ProfileImage: model.profileImage,
		}))
	}
	return model, tea.Batch(cmds...)
}

func (model *TUIModel) joinRoomCmd(room string) tea.Cmd {
	return model.emitCmd(EventJoinRoom, JoinRequest{
		Room:         room,
		Name:         model.username,
		JoiningTime:  time.Now().Format("15:04:05"),
		ProfileImage: model.profileImage,
	})
}

func (model *TUIModel) handleServerEvent(event Event) tea.Cmd {
	switch event.Kind {
	case EventRoomJoined:
		var ack RoomJoined
		if err := event.DecodeInto(&ack); err != nil {
			return nil
		}
		model.socketID = ack.SocketID
		model.room = ack.Room
		model.messages = model.messages[:0]
		model.members = nil
		model.typingUser = TypingNotice{}
		model.enterChat()
		model.addNotice(fmt.Sprintf("joined %s as %s", ack.Room, ack.UserName))
		return model.loadHistoryCmd(ack.Room)

	case EventUserJoined:
		var member Member
		if err := event.DecodeInto(&member); err != nil {
			return nil
		}
		model.addNotice(member.UserName + " joined the room")

	case EventUserLeft:
		var left UserLeft
		if err := event.DecodeInto(&left); err != nil {
			return nil
		}
		model.addNotice(left.UserName + " left the room")
		if model.typingUser.Name == left.UserName {
			model.typingUser = TypingNotice{}
		}

	case EventActiveUsers:
		var members []Member
		if err := event.DecodeInto(&members); err != nil {
			return nil
		}
		model.members = members

	case EventRoomsWithMembers:
		var listing []RoomListing
		if err := event.DecodeInto(&listing); err != nil {
			return nil
		}
		if len(listing) == 0 {
			model.roomsListing = RoomListing{}
		} else {
			model.roomsListing = listing[0]
		}

	case EventMessageReceived:
		var msg ChatMessage
		if err := event.DecodeInto(&msg); err != nil {
			return nil
		}
		fresh := model.upsertMessage(msg)
		model.saveMessage(msg)
		if fresh && msg.SenderID != model.socketID {
			// report delivery and, since a running TUI is foreground, mark
			// the room seen right away — the browser client does the same
			// when its tab is visible.
			return tea.Batch(
				model.emitCmd(EventMessageDelivered, DeliveryReceipt{
					MessageID:   msg.MessageID,
					Room:        msg.Room,
					RecipientID: model.socketID,
					SenderID:    msg.SenderID,
				}),
				model.emitCmd(EventMessagesSeen, SeenNotice{Room: model.room, SeenBy: model.socketID}),
			)
		}

	case EventMessageStatus:
		var update StatusUpdate
		if err := event.DecodeInto(&update); err != nil {
			return nil
		}
		model.setMessageStatus(update.MessageID, update.Status)
		model.saveStatus(update.MessageID, update.Status)

	case EventMessagesSeen:
		var notice SeenNotice
		if err := event.DecodeInto(&notice); err != nil {
			return nil
		}
		model.applySeen(notice.Room, notice.SeenBy)
		model.saveRoomSeen(notice.Room, notice.SeenBy)

	case EventUserTyping:
		var notice TypingNotice
		if err := event.DecodeInto(&notice); err != nil {
			return nil
		}
		model.typingUser = notice

	case EventUserTypingStop:
		model.typingUser = TypingNotice{}

	case EventRoomError, EventMessageError:
		var notice ErrorNotice
		if err := event.DecodeInto(&notice); err != nil {
			return nil
		}
		model.addNotice("server: " + notice.Message)
		if model.mode == modeChat && model.room == "" {
			model.enterRoomPrompt()
		}
	}
	return nil
}

// restoreHistory prepends the stored transcript to whatever already arrived
// live, keeping each messageId once.
func (model *TUIModel) restoreHistory(history []storage.Message) {
	if len(history) == 0 {
		return
	}
	live := model.messages
	model.messages = make([]ChatMessage, 0, len(history)+len(live))
	for _, row := range history {
		model.messages = append(model.messages, ChatMessage{
			MessageID:  row.MessageID,
			Message:    row.Body,
			Room:       row.Room,
			SenderID:   row.SenderID,
			SenderName: row.SenderName,
			Time:       row.SentAt.Local().Format("15:04:05"),
			Status:     Status(row.Status),
		})
	}
	for _, msg := range live {
		model.upsertMessage(msg)
	}
}
