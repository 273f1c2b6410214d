package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"remindbot/internal/messages"
	"remindbot/internal/models"
	"remindbot/internal/utils"
)

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Chat == nil {
		return nil
	}
	if msg.IsCommand() {
		return h.HandleCommand(ctx, msg)
	}
	return h.HandleText(ctx, msg)
}

// HandleCommand routes a slash command. Commands that start a flow, and
// /start, /q and /cancel, abandon the user's current conversation; lookups
// like /todos or /mytime leave it running.
func (h *Handler) HandleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		h.end(ctx, convKey(chatID, msg.From.ID))
		return h.reply(chatID, messages.Start)
	case "remind", "r", "recordar":
		return h.startReminder(ctx, msg, args)
	case "q":
		return h.quickReminder(ctx, msg, args)
	case "myreminders", "reminders":
		return h.listReminders(ctx, msg)
	case "delete", "borrar":
		return h.startDelete(ctx, msg, args)
	case "setmytime":
		return h.startTimezone(ctx, msg)
	case "mytime":
		return h.showTime(ctx, msg)
	case "todo":
		return h.addTodo(ctx, msg, args)
	case "todos":
		return h.listTodos(ctx, msg, args)
	case "done", "mark_todo_as_done":
		return h.completeTodo(ctx, msg, args)
	case "feedback":
		return h.startFeedback(ctx, msg, args)
	case "cancel":
		h.end(ctx, convKey(chatID, msg.From.ID))
		return h.reply(chatID, messages.Cancelled)
	default:
		return h.reply(chatID, messages.Unknown)
	}
}

// ---------------- /myreminders --------------------

func (h *Handler) listReminders(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	pending := false
	list, err := h.Reminders.ListReminders(ctx, models.ReminderFilter{UserID: msg.From.ID, Expired: &pending})
	if err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}
	if len(list) == 0 {
		return h.reply(chatID, messages.NoReminders)
	}

	now := h.now()
	offset := h.State.User(ctx, msg.From.ID).OffsetOr(0)
	var b strings.Builder
	for _, r := range list {
		at, err := utils.ParseISO(r.RemindTime)
		if err != nil {
			h.logger().Warn("skipping reminder with bad remind time", "id", r.ID, "err", err)
			continue
		}
		local := utils.UTCToUser(at, offset)
		fmt.Fprintf(&b, "• %s | `%s` (%s)\n",
			escape(r.Text), local.Format("02/01/2006 15:04"), humanize.RelTime(at, now, "ago", "from now"))
	}
	return h.replyMarkdown(chatID, b.String())
}

// ---------------- /delete --------------------

func (h *Handler) startDelete(ctx context.Context, msg *tgbotapi.Message, text string) error {
	key := convKey(msg.Chat.ID, msg.From.ID)
	if text == "" {
		h.enter(ctx, models.ConvDelete, key, models.StateAwaitDelete)
		return h.reply(msg.Chat.ID, messages.AskDelete)
	}
	h.end(ctx, key)
	return h.deleteReminder(ctx, msg, text)
}

func (h *Handler) deleteReminder(ctx context.Context, msg *tgbotapi.Message, text string) error {
	r, err := h.Reminders.DeleteReminder(ctx, models.ReminderFilter{UserID: msg.From.ID, Text: text})
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if r == nil {
		return h.replyMarkdown(msg.Chat.ID, fmt.Sprintf(messages.DeleteMissing, code(text)))
	}
	if h.Jobs.Cancel(r.Key) {
		h.logger().Info("disarmed deleted reminder", "key", r.Key)
	}
	return h.replyMarkdown(msg.Chat.ID, fmt.Sprintf(messages.Deleted, code(text)))
}

// ---------------- /feedback --------------------

func (h *Handler) startFeedback(ctx context.Context, msg *tgbotapi.Message, text string) error {
	key := convKey(msg.Chat.ID, msg.From.ID)
	if text == "" {
		h.enter(ctx, models.ConvFeedback, key, models.StateAwaitFeedback)
		return h.reply(msg.Chat.ID, messages.AskFeedback)
	}
	h.end(ctx, key)
	return h.sendFeedback(msg, text)
}

func (h *Handler) sendFeedback(msg *tgbotapi.Message, text string) error {
	h.NotifyAdmin(fmt.Sprintf("💬 Feedback!\n\n%s\n\nby %s (%d)", text, tagUser(msg.From), msg.From.ID))
	return h.reply(msg.Chat.ID, messages.FeedbackSent)
}

// escape protects user text in legacy Markdown.
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// code makes s safe inside a `code` span, where nothing can be escaped.
func code(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}
