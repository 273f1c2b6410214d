package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"remindbot/internal/messages"
	"remindbot/internal/models"
)

// HandleText feeds a plain message to the conversation the user is in.
func (h *Handler) HandleText(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	key := convKey(chatID, msg.From.ID)
	text := strings.TrimSpace(msg.Text)

	_, state := h.active(ctx, key)
	switch state {
	case models.StateAwaitText:
		return h.readReminderText(ctx, msg)
	case models.StateAwaitTimeChoice:
		kb := messages.TimeOptionsKeyboard()
		return h.say(target{chatID: chatID}, messages.ChooseTime, false, &kb)
	case models.StateAwaitCustomDate:
		return h.readCustomDate(ctx, msg)
	case models.StateAwaitTimezone:
		return h.readTimezone(ctx, msg)
	case models.StateAwaitDelete:
		if text == "" {
			return h.reply(chatID, messages.AskDelete)
		}
		h.end(ctx, key)
		return h.deleteReminder(ctx, msg, text)
	case models.StateAwaitFeedback:
		h.end(ctx, key)
		if text == "" {
			return h.reply(chatID, messages.FeedbackText)
		}
		return h.sendFeedback(msg, text)
	}

	if msg.Chat.IsPrivate() {
		return h.reply(chatID, messages.Unknown)
	}
	return nil
}
