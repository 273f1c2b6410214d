package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"remindbot/internal/config"
	"remindbot/internal/handlers"
	"remindbot/internal/persistence"
	"remindbot/internal/scheduler"
	"remindbot/internal/storage"
	"remindbot/internal/utils"
)

var debug bool

func main() {
	_ = godotenv.Load() // BOT_KEY, DATABASE_URL etc.

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "remindbot",
		Short:        "Telegram bot that reminds you of things",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		RunE: runBot,
	}
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level")
	cmd.AddCommand(newPendingCmd())
	return cmd
}

func runBot(cmd *cobra.Command, _ []string) error {
	log := slog.Default()

	cfg, err := config.Load()
	utils.Must(err)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	utils.Must(err)
	log.Info("authorized", "bot", bot.Self.UserName)

	db, err := storage.New(cfg.DatabaseURL, cfg.ConnMaxLifetime)
	utils.Must(err)
	defer func() { _ = db.Close() }()

	state := persistence.New(db, log)
	clock := clockwork.NewRealClock()
	h := &handlers.Handler{
		Bot:       bot,
		Reminders: db,
		Todos:     db,
		State:     state,
		Dates:     handlers.NewNaturalDates(),
		Clock:     clock,
		AdminID:   cfg.AdminID,
		Log:       log,
	}

	s, err := scheduler.New(clock, h.SendNotification, log)
	utils.Must(err)
	h.Jobs = s

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := s.Recover(ctx, db); err != nil {
		log.Error("could not recover reminders", "err", err)
		h.NotifyAdmin("Could not recover pending reminders. Check the logs")
	}
	utils.Must(s.Every(cfg.FlushInterval, "flush state", func() {
		if err := state.FlushIfDirty(context.Background()); err != nil {
			log.Error("periodic state flush failed", "err", err)
		}
	}))
	s.Start()
	log.Info("scheduler started", "armed", s.Armed())
	h.NotifyAdmin("Bot is running")

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = cfg.PollTimeout
	updates := bot.GetUpdatesChan(updateConfig)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case upd, ok := <-updates:
			if !ok {
				break loop
			}
			h.Dispatch(ctx, upd)
		}
	}

	log.Info("shutting down")
	bot.StopReceivingUpdates()
	if err := s.Shutdown(); err != nil {
		log.Error("scheduler shutdown", "err", err)
	}
	if err := state.Flush(context.Background()); err != nil {
		log.Error("final state flush failed", "err", err)
	}
	h.NotifyAdmin("Bot stopped")
	return nil
}
