package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"remindbot/internal/messages"
	"remindbot/internal/models"
	"remindbot/internal/persistence"
)

// Sender is the part of *tgbotapi.BotAPI the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type ReminderStore interface {
	CreateReminder(ctx context.Context, r *models.Reminder) error
	FindReminder(ctx context.Context, f models.ReminderFilter) (*models.Reminder, error)
	ListReminders(ctx context.Context, f models.ReminderFilter) ([]models.Reminder, error)
	ExpireReminder(ctx context.Context, key string) (bool, error)
	DeleteReminder(ctx context.Context, f models.ReminderFilter) (*models.Reminder, error)
}

type TodoStore interface {
	CreateTodo(ctx context.Context, text string) (*models.Todo, error)
	ListTodos(ctx context.Context, done bool) ([]models.Todo, error)
	CompleteTodo(ctx context.Context, id int64) (bool, error)
}

// Jobs arms and disarms deferred notifications.
type Jobs interface {
	Schedule(at time.Time, rc models.ReminderContext) (uuid.UUID, error)
	Cancel(key string) bool
}

// DateParser reads free-text dates relative to base, preferring the future.
type DateParser interface {
	Parse(text string, base time.Time) (time.Time, bool)
}

type Handler struct {
	Bot       Sender
	Reminders ReminderStore
	Todos     TodoStore
	State     *persistence.Persistence
	Jobs      Jobs
	Dates     DateParser
	Clock     clockwork.Clock
	AdminID   int64
	Log       *slog.Logger
}

func (h *Handler) now() time.Time {
	if h.Clock == nil {
		return time.Now().UTC()
	}
	return h.Clock.Now().UTC()
}

func (h *Handler) logger() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}

// Dispatch handles one update. A failing or panicking handler never takes
// the bot down: the user gets an apology and the admin a heads-up.
func (h *Handler) Dispatch(ctx context.Context, upd tgbotapi.Update) {
	var chatID int64
	if c := upd.FromChat(); c != nil {
		chatID = c.ID
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger().Error("an update broke the bot", "update", upd.UpdateID, "panic", r, "stack", string(debug.Stack()))
			h.apologize(chatID)
		}
	}()

	var err error
	switch {
	case upd.Message != nil:
		err = h.HandleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		err = h.HandleCallback(ctx, upd.CallbackQuery)
	}
	if err != nil {
		h.logger().Error("update failed", "update", upd.UpdateID, "chat", chatID, "err", err)
		h.apologize(chatID)
	}
}

func (h *Handler) apologize(chatID int64) {
	if chatID != 0 {
		_ = h.reply(chatID, messages.Oops)
	}
	h.NotifyAdmin("An error occurred on the bot. Check the logs")
}

// NotifyAdmin notifies the operator chat, if one is configured.
func (h *Handler) NotifyAdmin(text string) {
	if h.AdminID == 0 {
		return
	}
	if _, err := h.Bot.Send(tgbotapi.NewMessage(h.AdminID, text)); err != nil {
		h.logger().Error("could not notify admin", "err", err)
	}
}

// ---------- replies ----------------------------------------------------------

// target is where an answer goes: a new message, or an edit of messageID.
type target struct {
	chatID    int64
	messageID int
}

func (h *Handler) reply(chatID int64, text string) error {
	_, err := h.Bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (h *Handler) replyMarkdown(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := h.Bot.Send(msg)
	return err
}

func (h *Handler) say(t target, text string, markdown bool, kb *tgbotapi.InlineKeyboardMarkup) error {
	mode := ""
	if markdown {
		mode = tgbotapi.ModeMarkdown
	}
	if t.messageID == 0 {
		msg := tgbotapi.NewMessage(t.chatID, text)
		msg.ParseMode = mode
		if kb != nil {
			msg.ReplyMarkup = *kb
		}
		_, err := h.Bot.Send(msg)
		return err
	}
	edit := tgbotapi.NewEditMessageText(t.chatID, t.messageID, text)
	edit.ParseMode = mode
	edit.ReplyMarkup = kb
	_, err := h.Bot.Request(edit)
	return err
}

// ---------- conversations ----------------------------------------------------

func convKey(chatID, userID int64) models.ConversationKey {
	return models.ConversationKey{ChatID: chatID, UserID: userID}
}

// active returns the conversation key is in, if any.
func (h *Handler) active(ctx context.Context, key models.ConversationKey) (string, models.State) {
	for _, name := range models.Conversations {
		if st := h.State.State(ctx, name, key); st != models.StateIdle {
			return name, st
		}
	}
	return "", models.StateIdle
}

// enter moves key to state in the named conversation and leaves any other.
func (h *Handler) enter(ctx context.Context, name string, key models.ConversationKey, state models.State) {
	for _, n := range models.Conversations {
		if n != name {
			h.State.UpdateConversation(ctx, n, key, models.StateIdle)
		}
	}
	h.State.UpdateConversation(ctx, name, key, state)
}

func (h *Handler) end(ctx context.Context, key models.ConversationKey) {
	for _, n := range models.Conversations {
		h.State.UpdateConversation(ctx, n, key, models.StateIdle)
	}
}

func tagUser(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return fmt.Sprintf("[%s](tg://user?id=%d)", u.FirstName, u.ID)
}
