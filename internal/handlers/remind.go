package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"remindbot/internal/messages"
	"remindbot/internal/models"
	"remindbot/internal/utils"
)

func newContext(text string, from *tgbotapi.User, chatID int64, user models.UserData) models.ReminderContext {
	return models.ReminderContext{
		Text:    strings.TrimSpace(text),
		UserID:  from.ID,
		UserTag: tagUser(from),
		ChatID:  chatID,
		Offset:  user.OffsetOr(0),
	}
}

// ---------------- /remind --------------------

func (h *Handler) startReminder(ctx context.Context, msg *tgbotapi.Message, text string) error {
	key := convKey(msg.Chat.ID, msg.From.ID)
	if strings.TrimSpace(text) == "" {
		h.enter(ctx, models.ConvSetReminder, key, models.StateAwaitText)
		return h.reply(msg.Chat.ID, messages.AskText)
	}
	return h.askTime(ctx, msg, text)
}

func (h *Handler) readReminderText(ctx context.Context, msg *tgbotapi.Message) error {
	if strings.TrimSpace(msg.Text) == "" {
		return h.reply(msg.Chat.ID, messages.AskTextAgain)
	}
	return h.askTime(ctx, msg, msg.Text)
}

func (h *Handler) askTime(ctx context.Context, msg *tgbotapi.Message, text string) error {
	chatID := msg.Chat.ID
	rc := newContext(text, msg.From, chatID, h.State.User(ctx, msg.From.ID))
	h.State.UpdateChatData(ctx, chatID, rc)
	h.enter(ctx, models.ConvSetReminder, convKey(chatID, msg.From.ID), models.StateAwaitTimeChoice)

	kb := messages.TimeOptionsKeyboard()
	return h.say(target{chatID: chatID}, messages.ChooseTime, false, &kb)
}

// readTimeChoice handles a tap on the time menu of conversation conv.
func (h *Handler) readTimeChoice(ctx context.Context, cq *tgbotapi.CallbackQuery, conv string) error {
	chatID := cq.Message.Chat.ID
	key := convKey(chatID, cq.From.ID)
	t := target{chatID: chatID, messageID: cq.Message.MessageID}

	rc, ok := h.State.Chat(ctx, chatID)
	if !ok || rc.Validate() != nil {
		h.logger().Warn("time chosen without a reminder in progress", "chat", chatID, "user", cq.From.ID)
		h.end(ctx, key)
		return h.say(t, messages.ForgotYou, false, nil)
	}

	token, err := strconv.Atoi(cq.Data)
	if err != nil || (token != messages.Custom && !messages.IsDelay(token)) {
		h.logger().Info("unexpected time choice", "chat", chatID, "data", cq.Data)
		h.end(ctx, key)
		return h.say(t, messages.Ghost, false, nil)
	}

	if token == messages.Custom {
		h.enter(ctx, conv, key, models.StateAwaitCustomDate)
		return h.say(t, messages.AskCustomDate, true, nil)
	}

	h.end(ctx, key)
	return h.setupReminder(ctx, rc, h.now().Add(time.Duration(token)*time.Second), t)
}

func (h *Handler) readCustomDate(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	key := convKey(chatID, msg.From.ID)

	rc, ok := h.State.Chat(ctx, chatID)
	if !ok || rc.Validate() != nil {
		h.end(ctx, key)
		return h.reply(chatID, messages.ForgotYou)
	}

	offset := h.State.User(ctx, msg.From.ID).OffsetOr(rc.Offset)
	local, ok := h.Dates.Parse(msg.Text, utils.UserNow(h.now(), offset))
	if !ok {
		return h.replyMarkdown(chatID, messages.BadCustomDate)
	}

	h.end(ctx, key)
	rc.Offset = offset
	return h.setupReminder(ctx, rc, utils.OffsetToUTC(local, offset), target{chatID: chatID})
}

// setupReminder persists the reminder, arms its job and confirms in the
// user's local time. A reminder is armed only after its row is written.
func (h *Handler) setupReminder(ctx context.Context, rc models.ReminderContext, at time.Time, t target) error {
	at = at.UTC().Truncate(time.Second)
	rc.RemindDateISO = utils.FormatISO(at)
	h.State.UpdateChatData(ctx, rc.ChatID, rc)

	raw, err := json.Marshal(rc)
	if err != nil {
		return fmt.Errorf("encode reminder context: %w", err)
	}
	offset := rc.Offset
	r := &models.Reminder{
		Key:        rc.Key(),
		Text:       rc.Text,
		UserID:     rc.UserID,
		UserTag:    rc.UserTag,
		ChatID:     rc.ChatID,
		RemindTime: rc.RemindDateISO,
		Offset:     &offset,
		JobContext: raw,
	}

	if err := h.Reminders.CreateReminder(ctx, r); err != nil {
		h.logger().Error("error saving reminder", "key", r.Key, "err", err)
		h.NotifyAdmin(fmt.Sprintf("Error saving reminder.\n CONTEXT:\n%+v\n", rc))
		return h.say(t, messages.SaveFailed, false, nil)
	}

	if _, err := h.Jobs.Schedule(at, rc); err != nil {
		h.logger().Error("error arming reminder", "key", r.Key, "err", err)
		if _, derr := h.Reminders.DeleteReminder(ctx, models.ReminderFilter{ID: r.ID}); derr != nil {
			h.logger().Error("could not roll back unarmed reminder", "id", r.ID, "err", derr)
		}
		h.NotifyAdmin(fmt.Sprintf("Error arming reminder.\n CONTEXT:\n%+v\n", rc))
		return h.say(t, messages.SaveFailed, false, nil)
	}

	h.logger().Info("reminder set", "key", r.Key, "user", rc.UserID)
	local := utils.UTCToUser(at, rc.Offset)
	return h.say(t, fmt.Sprintf(messages.Confirmed, code(rc.Text), local.Format("02/01"), local.Format("15:04")), true, nil)
}

// ---------------- /q --------------------

// maxQuickMinutes caps /q delays at a year.
const maxQuickMinutes = 366 * 24 * 60

// quickReminder reads "/q text, minutes".
func (h *Handler) quickReminder(ctx context.Context, msg *tgbotapi.Message, args string) error {
	chatID := msg.Chat.ID
	if args == "" {
		return h.reply(chatID, messages.QuickUsage)
	}
	i := strings.LastIndex(args, ",")
	if i < 0 || strings.TrimSpace(args[:i]) == "" {
		return h.replyMarkdown(chatID, messages.QuickNoComma)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(args[i+1:]))
	if err != nil || minutes <= 0 || minutes > maxQuickMinutes {
		return h.reply(chatID, messages.QuickBadDelay)
	}

	h.end(ctx, convKey(chatID, msg.From.ID))
	rc := newContext(args[:i], msg.From, chatID, h.State.User(ctx, msg.From.ID))
	return h.setupReminder(ctx, rc, h.now().Add(time.Duration(minutes)*time.Minute), target{chatID: chatID})
}
