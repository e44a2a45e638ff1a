package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"channel-signature-bot/internal/domain"
)

// Callback tokens carried by inline buttons.
const (
	CbAddChannel    = "add_channel"
	CbRemoveChannel = "remove_channel"
	CbListChannels  = "list_channels"
	CbBackToMenu    = "back_to_menu"
	CbStats         = "stats"
	CbRemovePrefix  = "remove:"
)

const (
	TextMainMenu     = "Main menu:"
	TextAddPrompt    = "Send the channel @name or its numeric ID\n(The bot must be an admin of the channel)"
	TextNoChannels   = "No channels configured"
	TextPickToRemove = "Select a channel to remove:"
	TextRemoved      = "✅ Channel removed"
	TextNotFound     = "❌ Channel not found"
	TextBadFormat    = "❌ Invalid format. Use @name or a numeric ID"
	TextUseStart     = "Use /start to open the menu"
	TextSaveFailed   = "⚠️ Could not save the channel list, try again"
)

type Button struct {
	Label string
	Data  string
}

// Reply is what the messaging layer should show. Edit replaces the message
// that carried the pressed button instead of sending a new one. Stats asks
// the adapter to attach the statistics chart.
type Reply struct {
	Text     string
	Keyboard [][]Button
	Edit     bool
	Stats    bool
}

func (r Reply) Empty() bool { return r.Text == "" && !r.Stats }

type SessionStore interface {
	SetAwaiting(userID int64)
	ConsumeAwaiting(userID int64) bool
}

// Menu drives the registry from chat commands, button presses and replies.
// A user is either idle or awaiting channel input; the latter holds for
// exactly one text message.
type Menu struct {
	channels domain.ChannelRepository
	sessions SessionStore
	stats    *StatsUsecase
	logger   *slog.Logger
}

func NewMenu(channels domain.ChannelRepository, sessions SessionStore, stats *StatsUsecase, logger *slog.Logger) *Menu {
	return &Menu{channels: channels, sessions: sessions, stats: stats, logger: logger}
}

func (m *Menu) Start() Reply {
	return Reply{Text: TextMainMenu, Keyboard: m.mainKeyboard()}
}

func (m *Menu) Callback(userID int64, data string) Reply {
	switch {
	case data == CbAddChannel:
		m.sessions.SetAwaiting(userID)
		return Reply{Text: TextAddPrompt, Edit: true}
	case data == CbRemoveChannel:
		return m.removeMenu()
	case data == CbListChannels:
		return m.listMenu()
	case data == CbBackToMenu:
		return Reply{Text: TextMainMenu, Keyboard: m.mainKeyboard(), Edit: true}
	case data == CbStats && m.stats != nil:
		return Reply{Text: m.stats.Summary(), Keyboard: backKeyboard(), Stats: true}
	case strings.HasPrefix(data, CbRemovePrefix):
		return m.remove(strings.TrimPrefix(data, CbRemovePrefix))
	}
	if m.logger != nil {
		m.logger.Debug("unknown callback", "user_id", userID, "data", data)
	}
	return Reply{}
}

// Text handles a free-text message. The awaiting marker is consumed whether
// or not the input parses.
func (m *Menu) Text(userID int64, text string) Reply {
	if !m.sessions.ConsumeAwaiting(userID) {
		return Reply{Text: TextUseStart}
	}
	ch, err := ParseChannelInput(text)
	if err != nil {
		return Reply{Text: TextBadFormat}
	}
	if err := m.channels.Add(ch.ID, ch.Name); err != nil {
		if m.logger != nil {
			m.logger.Error("channel add failed", "channel_id", ch.ID, "error", err)
		}
		return Reply{Text: TextSaveFailed}
	}
	if m.logger != nil {
		m.logger.Info("channel added", "user_id", userID, "channel_id", ch.ID, "name", ch.Name)
	}
	if strings.HasPrefix(ch.Name, "@") {
		return Reply{Text: fmt.Sprintf("✅ %s added!", ch.Name)}
	}
	return Reply{Text: fmt.Sprintf("✅ ID %s added!", ch.ID)}
}

func (m *Menu) remove(id string) Reply {
	ok, err := m.channels.Remove(id)
	if err != nil {
		if m.logger != nil {
			m.logger.Error("channel remove failed", "channel_id", id, "error", err)
		}
		return Reply{Text: TextSaveFailed, Edit: true}
	}
	if !ok {
		return Reply{Text: TextNotFound, Edit: true}
	}
	if m.logger != nil {
		m.logger.Info("channel removed", "channel_id", id)
	}
	return Reply{Text: TextRemoved, Edit: true}
}

func (m *Menu) removeMenu() Reply {
	channels := m.channels.List()
	if len(channels) == 0 {
		return Reply{Text: TextNoChannels, Keyboard: backKeyboard(), Edit: true}
	}
	rows := make([][]Button, 0, len(channels)+1)
	for _, c := range channels {
		rows = append(rows, []Button{{Label: "🗑 " + c.Name, Data: CbRemovePrefix + c.ID}})
	}
	rows = append(rows, backKeyboard()...)
	return Reply{Text: TextPickToRemove, Keyboard: rows, Edit: true}
}

func (m *Menu) listMenu() Reply {
	channels := m.channels.List()
	if len(channels) == 0 {
		return Reply{Text: TextNoChannels, Keyboard: backKeyboard(), Edit: true}
	}
	var b strings.Builder
	b.WriteString("📋 Configured channels:\n\n")
	for _, c := range channels {
		fmt.Fprintf(&b, "• %s (ID: %s)\n", c.Name, c.ID)
	}
	return Reply{Text: b.String(), Keyboard: backKeyboard(), Edit: true}
}

func (m *Menu) mainKeyboard() [][]Button {
	rows := [][]Button{
		{{Label: "➕ Add a channel", Data: CbAddChannel}, {Label: "🗑 Remove a channel", Data: CbRemoveChannel}},
		{{Label: "📋 Channel list", Data: CbListChannels}},
	}
	if m.stats != nil {
		rows = append(rows, []Button{{Label: "📊 Statistics", Data: CbStats}})
	}
	return rows
}

func backKeyboard() [][]Button {
	return [][]Button{{{Label: "🔙 Back", Data: CbBackToMenu}}}
}

// ParseChannelInput classifies add-flow input. "@Name" registers id "name"
// under the display name "@Name"; usernames are case-insensitive, so the id is
// lower-cased. A decimal id (optionally negative, as Telegram channel ids are)
// registers under a generated "Channel <id>" label.
func ParseChannelInput(text string) (domain.Channel, error) {
	text = strings.TrimSpace(text)
	if handle, ok := strings.CutPrefix(text, "@"); ok {
		if handle == "" || strings.ContainsAny(handle, " \t\n@") {
			return domain.Channel{}, fmt.Errorf("%w: %q", domain.ErrInvalidChannelInput, text)
		}
		return domain.Channel{ID: strings.ToLower(handle), Name: text}, nil
	}
	if isChatID(text) {
		return domain.Channel{ID: text, Name: "Channel " + text}, nil
	}
	return domain.Channel{}, fmt.Errorf("%w: %q", domain.ErrInvalidChannelInput, text)
}

func isChatID(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
