package messages

import (
	"math/rand/v2"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"remindbot/internal/utils"
)

// Callback data of the notification buttons.
const (
	Done        = "Done"
	RemindAgain = "Remind again"
)

// Custom is the time-choice token asking for a free-text date.
const Custom = -1

// Delays offered by the time-choice menu, in seconds.
var Delays = [][]int{
	{5 * utils.Minute, 10 * utils.Minute, 20 * utils.Minute, 30 * utils.Minute},
	{utils.Hour, 2 * utils.Hour, 4 * utils.Hour, 8 * utils.Hour},
	{12 * utils.Hour, 16 * utils.Hour, 24 * utils.Hour, 48 * utils.Hour},
}

// IsDelay reports whether seconds is one of the menu presets.
func IsDelay(seconds int) bool {
	for _, row := range Delays {
		for _, d := range row {
			if d == seconds {
				return true
			}
		}
	}
	return false
}

func TimeOptionsKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(Delays)+1)
	for _, delays := range Delays {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(delays))
		for _, d := range delays {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(utils.FormatDelay(d), strconv.Itoa(d)))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Custom 📝", strconv.Itoa(Custom)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func DoneOrRepeatKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Done", Done),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Remind again", RemindAgain),
		),
	)
}

// TimeIcons decorate a delivered reminder.
var TimeIcons = []string{"⏰", "🔊", "🔈", "🔉", "📣", "📢", "❕", "🎉", "🎊", "⏱"}

var congratzIcons = []string{"🥇", "🏆", "🏅", "🎖"}

func RandomTimeIcon() string { return TimeIcons[rand.IntN(len(TimeIcons))] }

func RandomCongratzIcon() string { return congratzIcons[rand.IntN(len(congratzIcons))] }

const (
	Start = "Hi! I'm here to remind you of things.\n\n" +
		"/remind to set a new reminder (also /r)\n" +
		"/myreminders to see your pending reminders\n" +
		"/delete to delete a reminder\n" +
		"/q something, 20 to be reminded in 20 minutes\n" +
		"/setmytime to tell me your current time\n" +
		"/mytime to check your time and UTC offset\n" +
		"/todo, /todos and /done to keep a todo list\n" +
		"/feedback to report a bug or suggest something\n" +
		"/cancel to stop what we are doing"

	AskText       = "⏰ What do you want to remind?"
	AskTextAgain  = "Please input text"
	ChooseTime    = "Perfect👌 Now choose when to be reminded. 🕙"
	AskCustomDate = "» *When should i remind you?*\n" +
		"I understand dates like:\n" +
		"👉 in 45 minutes\n" +
		"👉 today at 17:00\n" +
		"👉 tomorrow at 13:00\n" +
		"👉 on friday at 21:00\n" +
		"👉 d/m hh:mm\n"
	BadCustomDate  = "What date is that? 🤨\nTry again with a more standard format. i.e: `d/m hh:mm`"
	Ghost          = "👻"
	ForgotYou      = "I'm sorry, I forgot who you are! let's try again "
	SaveFailed     = "🚫 Error saving reminder. Please try again later.."
	RepeatNotFound = "Boo 👻\nCan't re-set reminder. Please do it manually with `/remind %s`"
	RepeatUnknown  = "🤨 I was expecting you to tell me if i should repeat the reminder or not.. Let's start over"
	Confirmed      = "✅ Done. I will remind you of `%s` on %s at %s 🔔"
	WellDone       = "Well done! %s"

	AskDelete     = "🗑 Which reminder do you want to delete?"
	Deleted       = "✅ Reminder `%s` deleted"
	DeleteMissing = "🚫 Reminder `%s` does not exist"
	NoReminders   = "No reminders set yet"

	AskTimezone     = "Enter your current time in `d/m HH:MM` format"
	BadTimezone     = "Invalid format. Try again."
	OffsetSaved     = "✅ Your UTC offset is `%s`"
	TimezoneMissing = "You haven't set your time yet. Do it with /setmytime"
	YourTime        = "Your time is: `%s`\n\n» UTC offset `%s`"

	QuickUsage    = "Mmm not like that\n/q buy something, 20"
	QuickNoComma  = "Please add a *comma* and delay time. i.e /q charge phone*,* 20"
	QuickBadDelay = "Delay must be in minutes. i.e 60"

	TodoUsage     = "Usage: `/todo something`"
	TodoSaved     = "✅ Saved"
	NoTodos       = "No pending todos"
	NoDoneTodos   = "No finished todos"
	TodoMissingID = "Missing todo id"
	TodoBadID     = "Todo id must be a digit"
	TodoNotFound  = "🚫 No pending todo with id `%d`"
	TodoDone      = "✅ Congratz. You've finished one todo"

	AskFeedback  = "Please tell me your bug 🐞 feature request 🌟 or suggestion 💭.\nBe sure to include all relevant details"
	FeedbackSent = "✅ Feedback sent 🗳"
	FeedbackText = "Message must be text. Try again with /feedback"

	Cancelled = "Ok, forget it."
	Unknown   = "🧐 I don't understand.. send /start to see how to use me"
	Oops      = "Errors happen ¯\\_(ツ)_/¯"
)
