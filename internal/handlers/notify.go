package handlers

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"remindbot/internal/messages"
	"remindbot/internal/models"
)

// SendNotification delivers a due reminder and marks it expired. It runs on
// scheduler goroutines.
func (h *Handler) SendNotification(ctx context.Context, rc models.ReminderContext) {
	defer func() {
		if r := recover(); r != nil {
			h.logger().Error("notification panicked", "key", rc.Key(), "panic", r, "stack", string(debug.Stack()))
		}
	}()

	msg := tgbotapi.NewMessage(rc.ChatID, fmt.Sprintf("%s %s %s ", rc.UserTag, rc.Text, messages.RandomTimeIcon()))
	msg.ReplyMarkup = messages.DoneOrRepeatKeyboard()
	if _, err := h.Bot.Send(msg); err != nil {
		h.logger().Error("could not deliver reminder", "key", rc.Key(), "err", err)
		h.NotifyAdmin(fmt.Sprintf("Could not deliver reminder %q to chat %d: %v", rc.Text, rc.ChatID, err))
		return
	}
	h.logger().Info("reminded", "user", rc.UserID, "text", rc.Text)

	ok, err := h.Reminders.ExpireReminder(ctx, rc.Key())
	switch {
	case err != nil:
		h.logger().Error("could not expire reminder", "key", rc.Key(), "err", err)
		h.NotifyAdmin(fmt.Sprintf("Error expiring reminder %q: %v", rc.Key(), err))
	case !ok:
		h.logger().Info("reminder does not exist on db", "key", rc.Key())
	}
}

// reminderTextFromNotification strips the user tag and the trailing icon
// from a delivered notification.
func reminderTextFromNotification(s string) string {
	s = strings.TrimSpace(s)
	for _, icon := range messages.TimeIcons {
		if strings.HasSuffix(s, icon) {
			s = strings.TrimSpace(strings.TrimSuffix(s, icon))
			break
		}
	}

	switch {
	case strings.HasPrefix(s, "@"):
		if i := strings.IndexByte(s, ' '); i >= 0 {
			s = s[i+1:]
		} else {
			s = ""
		}
	case strings.HasPrefix(s, "["):
		if i := strings.Index(s, ") "); i >= 0 && strings.Contains(s[:i], "](tg://user?id=") {
			s = s[i+2:]
		}
	}
	return strings.TrimSpace(s)
}
