package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"remindbot/internal/messages"
)

func (h *Handler) addTodo(ctx context.Context, msg *tgbotapi.Message, text string) error {
	if text == "" {
		return h.replyMarkdown(msg.Chat.ID, messages.TodoUsage)
	}
	if _, err := h.Todos.CreateTodo(ctx, text); err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return h.reply(msg.Chat.ID, messages.TodoSaved)
}

// listTodos shows pending todos, or finished ones with --done.
func (h *Handler) listTodos(ctx context.Context, msg *tgbotapi.Message, args string) error {
	done := false
	for _, f := range strings.Fields(args) {
		if f == "--done" || f == "--all" {
			done = true
		}
	}
	todos, err := h.Todos.ListTodos(ctx, done)
	if err != nil {
		return fmt.Errorf("list todos: %w", err)
	}
	if len(todos) == 0 {
		if done {
			return h.reply(msg.Chat.ID, messages.NoDoneTodos)
		}
		return h.reply(msg.Chat.ID, messages.NoTodos)
	}

	var b strings.Builder
	for _, t := range todos {
		fmt.Fprintf(&b, "%d: %s\n", t.ID, t.Text)
	}
	return h.reply(msg.Chat.ID, b.String())
}

func (h *Handler) completeTodo(ctx context.Context, msg *tgbotapi.Message, args string) error {
	if args == "" {
		return h.reply(msg.Chat.ID, messages.TodoMissingID)
	}
	id, err := strconv.ParseInt(strings.Fields(args)[0], 10, 64)
	if err != nil {
		return h.reply(msg.Chat.ID, messages.TodoBadID)
	}
	ok, err := h.Todos.CompleteTodo(ctx, id)
	if err != nil {
		return fmt.Errorf("complete todo %d: %w", id, err)
	}
	if !ok {
		return h.replyMarkdown(msg.Chat.ID, fmt.Sprintf(messages.TodoNotFound, id))
	}
	return h.reply(msg.Chat.ID, messages.TodoDone)
}
