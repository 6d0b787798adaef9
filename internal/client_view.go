package internal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// pre styled colors, all from lipgloss
var (
	appTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")).Padding(0, 1)
	subtitleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).MarginTop(1)
	chatHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("109")).MarginTop(1)
	connectedStyle   = statusStyle.Copy().Foreground(lipgloss.Color("42")).Bold(true)
	connectingStyle  = statusStyle.Copy().Foreground(lipgloss.Color("178")).Italic(true)
	messageBodyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("253"))
	messageBoxStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("60")).Padding(1, 2).MarginTop(1)
	inputBoxStyle    = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1).MarginTop(1)
	timestampStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	usernameStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	ownNameStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)
	errorStyle       = statusStyle.Copy().Foreground(lipgloss.Color("196")).Bold(true)
	typingStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Italic(true)
	tickSentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	tickSeenStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Bold(true)
	memberListStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

func (model *TUIModel) View() string {
	switch model.mode {
	case modeNamePrompt:
		return model.renderPromptView("Who are you?", "Pick the display name other members will see.")
	case modeRoomPrompt:
		return model.renderPromptView("Pick a room", "Rooms spring into existence on first join.")
	default:
		return model.renderChatView()
	}
}

func (model *TUIModel) renderPromptView(title, hint string) string {
	sections := []string{
		appTitleStyle.Render("RelayChat"),
		subtitleStyle.Render(title),
		statusStyle.Render(hint),
		inputBoxStyle.Render(model.textInput.View()),
	}
	if model.mode == modeRoomPrompt && len(model.roomsListing) > 0 {
		sections = append(sections, statusStyle.Render("active: "+model.renderRoomList()))
	}
	sections = append(sections, model.renderConnectionLine(), model.renderNotices())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (model *TUIModel) renderRoomList() string {
	names := make([]string, 0, len(model.roomsListing))
	for name, members := range model.roomsListing {
		names = append(names, fmt.Sprintf("%s (%d)", name, len(members)))
	}
	return strings.Join(names, "  ")
}

func (model *TUIModel) renderChatView() string {
	header := chatHeaderStyle.Render(fmt.Sprintf("RelayChat ─ #%s", model.room))

	var lines []string
	for _, msg := range model.messages {
		lines = append(lines, model.renderMessageLine(msg))
	}
	if len(lines) == 0 {
		lines = append(lines, noticeStyle.Render("no messages yet"))
	}
	body := messageBoxStyle.Render(strings.Join(lines, "\n"))

	sections := []string{header, model.renderMemberLine(), body}
	if model.typingUser.Name != "" {
		sections = append(sections, typingStyle.Render(model.typingUser.Name+" is typing…"))
	}
	sections = append(sections,
		inputBoxStyle.Render(model.textInput.View()),
		model.renderConnectionLine(),
		model.renderNotices(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (model *TUIModel) renderMessageLine(msg ChatMessage) string {
	nameStyle := usernameStyle
	if msg.SenderID == model.socketID {
		nameStyle = ownNameStyle
	}
	line := fmt.Sprintf("%s %s %s",
		timestampStyle.Render(msg.Time),
		nameStyle.Render(msg.SenderName+":"),
		messageBodyStyle.Render(msg.Message),
	)
	// only own messages carry delivery ticks; foreign ones are just text
	if msg.SenderID == model.socketID {
		line += " " + renderStatusTicks(msg.Status)
	}
	return line
}

func renderStatusTicks(status Status) string {
	switch status {
	case StatusDelivered:
		return tickSentStyle.Render("✓✓")
	case StatusSeen:
		return tickSeenStyle.Render("✓✓")
	default:
		return tickSentStyle.Render("✓")
	}
}

func (model *TUIModel) renderMemberLine() string {
	if len(model.members) == 0 {
		return ""
	}
	names := make([]string, len(model.members))
	for i, member := range model.members {
		names[i] = member.UserName
	}
	return memberListStyle.Render("here: " + strings.Join(names, ", "))
}

func (model *TUIModel) renderConnectionLine() string {
	if model.connErr != nil {
		return errorStyle.Render("connection failed: " + model.connErr.Error())
	}
	if !model.connected {
		return connectingStyle.Render("connecting…")
	}
	return connectedStyle.Render("connected")
}

func (model *TUIModel) renderNotices() string {
	if len(model.notices) == 0 {
		return ""
	}
	styled := make([]string, len(model.notices))
	for i, notice := range model.notices {
		styled[i] = noticeStyle.Render(notice)
	}
	return strings.Join(styled, "\n")
}
