package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"remindbot/internal/messages"
	"remindbot/internal/models"
	"remindbot/internal/utils"
)

// ---------------- /setmytime --------------------

func (h *Handler) startTimezone(ctx context.Context, msg *tgbotapi.Message) error {
	h.enter(ctx, models.ConvTimezone, convKey(msg.Chat.ID, msg.From.ID), models.StateAwaitTimezone)
	return h.replyMarkdown(msg.Chat.ID, messages.AskTimezone)
}

func (h *Handler) readTimezone(ctx context.Context, msg *tgbotapi.Message) error {
	offset, err := utils.ParseUserTime(msg.Text, h.now())
	if err != nil {
		h.logger().Debug("bad user time", "text", msg.Text, "err", err)
		return h.reply(msg.Chat.ID, messages.BadTimezone)
	}
	h.State.UpdateUserData(ctx, msg.From.ID, models.UserData{Offset: &offset})
	h.end(ctx, convKey(msg.Chat.ID, msg.From.ID))
	return h.replyMarkdown(msg.Chat.ID, fmt.Sprintf(messages.OffsetSaved, utils.FormatOffset(offset)))
}

// ---------------- /mytime --------------------

func (h *Handler) showTime(ctx context.Context, msg *tgbotapi.Message) error {
	user := h.State.User(ctx, msg.From.ID)
	if user.Offset == nil {
		return h.reply(msg.Chat.ID, messages.TimezoneMissing)
	}
	local := utils.UserNow(h.now(), *user.Offset)
	return h.replyMarkdown(msg.Chat.ID, fmt.Sprintf(messages.YourTime, local.Format("02/01 15:04"), utils.FormatOffset(*user.Offset)))
}
