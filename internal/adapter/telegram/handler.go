package telegram

import (
	"context"
	"log/slog"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"channel-signature-bot/internal/usecase"
)

const textAccessDenied = "Access denied"

// BotAPI is the part of *tgbotapi.BotAPI the adapter uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Handler struct {
	bot      BotAPI
	menu     *usecase.Menu
	signer   *usecase.Signer
	stats    *usecase.StatsUsecase
	adminIDs map[int64]struct{}
	observe  func(kind string)
	logger   *slog.Logger
}

func NewHandler(bot BotAPI, menu *usecase.Menu, signer *usecase.Signer, logger *slog.Logger) *Handler {
	return &Handler{bot: bot, menu: menu, signer: signer, logger: logger}
}

// SetAdminIDs restricts the menu to the given users. An empty set leaves
// the menu open to everyone.
func (h *Handler) SetAdminIDs(ids map[int64]struct{}) { h.adminIDs = ids }

func (h *Handler) SetStats(stats *usecase.StatsUsecase) { h.stats = stats }

func (h *Handler) SetUpdateObserver(fn func(kind string)) { h.observe = fn }

// Run handles updates one at a time until ctx is done or updates closes.
func (h *Handler) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate routes a single update. A panic while handling it is logged
// and the update dropped.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil && h.logger != nil {
			h.logger.Error("update handler panic", "update_id", update.UpdateID, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	switch {
	case update.ChannelPost != nil:
		h.track("channel_post")
		h.handleChannelPost(ctx, update.ChannelPost)
	case update.CallbackQuery != nil:
		h.track("callback")
		h.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		h.track("message")
		h.handleMessage(update.Message)
	default:
		// Edited posts include our own signature edits.
		h.track("ignored")
	}
}

func (h *Handler) handleChannelPost(ctx context.Context, m *tgbotapi.Message) {
	if m.Chat == nil {
		return
	}
	h.signer.Sign(ctx, usecase.Post{
		ChatID:          m.Chat.ID,
		Username:        m.Chat.UserName,
		MessageID:       m.MessageID,
		Text:            m.Text,
		Entities:        postEntities(m.Entities),
		Caption:         m.Caption,
		CaptionEntities: postEntities(m.CaptionEntities),
	})
}

func (h *Handler) handleCallback(q *tgbotapi.CallbackQuery) {
	if q.From == nil {
		return
	}
	userID := q.From.ID
	if !h.isAdmin(userID) {
		h.answer(q.ID, textAccessDenied)
		if h.logger != nil {
			h.logger.Warn("menu denied", "user_id", userID)
		}
		return
	}
	h.answer(q.ID, "")

	chatID, messageID := userID, 0
	if q.Message != nil && q.Message.Chat != nil {
		chatID, messageID = q.Message.Chat.ID, q.Message.MessageID
	}
	h.respond(chatID, messageID, h.menu.Callback(userID, q.Data))
}

func (h *Handler) handleMessage(m *tgbotapi.Message) {
	if m.From == nil || m.Chat == nil {
		return
	}
	chatID := m.Chat.ID
	if !h.isAdmin(m.From.ID) {
		h.sendText(chatID, textAccessDenied)
		if h.logger != nil {
			h.logger.Warn("menu denied", "user_id", m.From.ID)
		}
		return
	}
	if m.IsCommand() {
		if m.Command() == "start" {
			h.respond(chatID, 0, h.menu.Start())
			if h.logger != nil {
				h.logger.Info("menu opened", "user_id", m.From.ID)
			}
			return
		}
		if h.logger != nil {
			h.logger.Debug("unknown command", "user_id", m.From.ID, "command", m.Command())
		}
		return
	}
	if m.Text == "" {
		return
	}
	h.respond(chatID, 0, h.menu.Text(m.From.ID, m.Text))
}

func (h *Handler) isAdmin(userID int64) bool {
	if len(h.adminIDs) == 0 {
		return true
	}
	_, ok := h.adminIDs[userID]
	return ok
}

func (h *Handler) answer(queryID, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(queryID, text)); err != nil && h.logger != nil {
		h.logger.Warn("callback answer failed", "error", err)
	}
}

func (h *Handler) track(kind string) {
	if h.observe != nil {
		h.observe(kind)
	}
}
