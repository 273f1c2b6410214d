package handlers

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"remindbot/internal/messages"
	"remindbot/internal/models"
)

func (h *Handler) HandleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	// always answer callback
	_, _ = h.Bot.Request(tgbotapi.NewCallback(cq.ID, ""))

	if cq.Message == nil || cq.Message.Chat == nil || cq.From == nil {
		return nil
	}
	chatID := cq.Message.Chat.ID

	switch cq.Data {
	case messages.Done, messages.RemindAgain:
		return h.readRepeatDecision(ctx, cq)
	}

	name, state := h.active(ctx, convKey(chatID, cq.From.ID))
	if state == models.StateAwaitTimeChoice {
		return h.readTimeChoice(ctx, cq, name)
	}

	// Someone else's time menu: leave it alone.
	if token, err := strconv.Atoi(cq.Data); err == nil && (token == messages.Custom || messages.IsDelay(token)) {
		h.logger().Debug("time menu tapped by a bystander", "chat", chatID, "user", cq.From.ID)
		return nil
	}

	h.logger().Info("callback outside a conversation", "chat", chatID, "data", cq.Data, "state", state)
	return h.say(target{chatID: chatID, messageID: cq.Message.MessageID}, messages.RepeatUnknown, false, nil)
}

// ---------------- repeat reminder --------------------

func (h *Handler) readRepeatDecision(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	chatID := cq.Message.Chat.ID
	key := convKey(chatID, cq.From.ID)
	t := target{chatID: chatID, messageID: cq.Message.MessageID}
	text := reminderTextFromNotification(cq.Message.Text)

	if cq.Data == messages.Done {
		h.end(ctx, key)
		err := h.say(t, fmt.Sprintf(messages.WellDone, messages.RandomCongratzIcon()), false, nil)
		expired := true
		if _, derr := h.Reminders.DeleteReminder(ctx, models.ReminderFilter{UserID: cq.From.ID, Text: text, Expired: &expired}); derr != nil {
			h.logger().Error("error deleting finished reminder", "text", text, "err", derr)
			h.NotifyAdmin(fmt.Sprintf("Error deleting reminder %q from %s", text, tagUser(cq.From)))
		}
		return err
	}

	notFound := fmt.Sprintf(messages.RepeatNotFound, code(text))
	if text == "" {
		h.end(ctx, key)
		return h.say(t, notFound, true, nil)
	}
	r, err := h.Reminders.FindReminder(ctx, models.ReminderFilter{UserID: cq.From.ID, Text: text})
	if err != nil {
		h.logger().Error("error looking up reminder to repeat", "text", text, "err", err)
	}
	if err != nil || r == nil {
		h.end(ctx, key)
		return h.say(t, notFound, true, nil)
	}

	rc := newContext(r.Text, cq.From, chatID, h.State.User(ctx, cq.From.ID))
	h.State.UpdateChatData(ctx, chatID, rc)
	h.enter(ctx, models.ConvRepeatReminder, key, models.StateAwaitTimeChoice)

	kb := messages.TimeOptionsKeyboard()
	return h.say(t, messages.ChooseTime, false, &kb)
}
