package telegram

import (
	"context"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"channel-signature-bot/internal/usecase"
)

// respond shows a menu reply. Edits fall back to a fresh message when the
// original can no longer be edited.
func (h *Handler) respond(chatID int64, messageID int, r usecase.Reply) {
	if r.Empty() {
		return
	}
	if r.Stats {
		h.sendStats(chatID, r)
		return
	}
	if r.Edit && messageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, r.Text)
		if len(r.Keyboard) > 0 {
			kb := inlineKeyboard(r.Keyboard)
			edit.ReplyMarkup = &kb
		}
		_, err := h.bot.Request(edit)
		if err == nil {
			return
		}
		if h.logger != nil {
			h.logger.Warn("menu edit failed, sending instead", "chat_id", chatID, "error", err)
		}
	}
	h.sendTextWithKeyboard(chatID, r.Text, r.Keyboard)
}

func (h *Handler) sendStats(chatID int64, r usecase.Reply) {
	sent, err := h.sendStatsChart(chatID, r)
	if err != nil && h.logger != nil {
		h.logger.Error("stats chart failed", "chat_id", chatID, "error", err)
	}
	if !sent {
		h.sendTextWithKeyboard(chatID, r.Text, r.Keyboard)
	}
}

// sendStatsChart sends the chart with the summary as caption, or as a
// separate message when it exceeds the caption limit.
func (h *Handler) sendStatsChart(chatID int64, r usecase.Reply) (bool, error) {
	if h.stats == nil {
		return false, nil
	}
	labels, values := h.stats.GraphData()
	if len(labels) == 0 {
		return false, nil
	}
	png, err := renderBarChart(labels, values)
	if err != nil {
		return false, err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "stats.png", Bytes: png})
	if utf8.RuneCountInString(r.Text) <= usecase.MaxCaptionLen {
		photo.Caption = r.Text
		if len(r.Keyboard) > 0 {
			photo.ReplyMarkup = inlineKeyboard(r.Keyboard)
		}
		if _, err := h.bot.Send(photo); err != nil {
			return false, err
		}
		return true, nil
	}
	if _, err := h.bot.Send(photo); err != nil {
		return false, err
	}
	h.sendTextWithKeyboard(chatID, r.Text, r.Keyboard)
	return true, nil
}

func (h *Handler) sendText(chatID int64, text string) {
	h.sendTextWithKeyboard(chatID, text, nil)
}

func (h *Handler) sendTextWithKeyboard(chatID int64, text string, rows [][]usecase.Button) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(rows) > 0 {
		msg.ReplyMarkup = inlineKeyboard(rows)
	}
	if _, err := h.bot.Send(msg); err != nil && h.logger != nil {
		h.logger.Error("send failed", "chat_id", chatID, "error", err)
	}
}

func inlineKeyboard(rows [][]usecase.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: out}
}

// PostEditor rewrites channel posts through the Bot API.
type PostEditor struct{ bot BotAPI }

func NewPostEditor(bot BotAPI) *PostEditor { return &PostEditor{bot: bot} }

func (e *PostEditor) EditText(_ context.Context, chatID int64, messageID int, text string, entities []usecase.Entity) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.Entities = apiEntities(entities)
	_, err := e.bot.Request(edit)
	return err
}

func (e *PostEditor) EditCaption(_ context.Context, chatID int64, messageID int, caption string, entities []usecase.Entity) error {
	edit := tgbotapi.NewEditMessageCaption(chatID, messageID, caption)
	edit.CaptionEntities = apiEntities(entities)
	_, err := e.bot.Request(edit)
	return err
}

func postEntities(in []tgbotapi.MessageEntity) []usecase.Entity {
	if len(in) == 0 {
		return nil
	}
	out := make([]usecase.Entity, 0, len(in))
	for _, e := range in {
		ent := usecase.Entity{Type: e.Type, Offset: e.Offset, Length: e.Length, URL: e.URL, Language: e.Language}
		if e.User != nil {
			ent.UserID = e.User.ID
		}
		out = append(out, ent)
	}
	return out
}

func apiEntities(in []usecase.Entity) []tgbotapi.MessageEntity {
	if len(in) == 0 {
		return nil
	}
	out := make([]tgbotapi.MessageEntity, 0, len(in))
	for _, e := range in {
		ent := tgbotapi.MessageEntity{Type: e.Type, Offset: e.Offset, Length: e.Length, URL: e.URL, Language: e.Language}
		// text_mention entities must name the user.
		if e.UserID != 0 {
			ent.User = &tgbotapi.User{ID: e.UserID}
		}
		out = append(out, ent)
	}
	return out
}
