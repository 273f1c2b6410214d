package models

// State is the step a conversation is waiting on. The tag is persisted.
type State string

const (
	StateIdle            State = "IDLE"
	StateAwaitText       State = "AWAIT_TEXT"
	StateAwaitTimeChoice State = "AWAIT_TIME_CHOICE"
	StateAwaitCustomDate State = "AWAIT_CUSTOM_DATE"
	StateAwaitTimezone   State = "AWAIT_TIMEZONE"
	StateAwaitDelete     State = "AWAIT_DELETE"
	StateAwaitFeedback   State = "AWAIT_FEEDBACK"
)

// Conversation names, in routing priority.
const (
	ConvSetReminder    = "Set Reminders"
	ConvRepeatReminder = "Repeat reminder"
	ConvTimezone       = "Change timezone"
	ConvDelete         = "Delete reminder"
	ConvFeedback       = "Feedback"
)

var Conversations = []string{
	ConvSetReminder,
	ConvRepeatReminder,
	ConvTimezone,
	ConvDelete,
	ConvFeedback,
}
