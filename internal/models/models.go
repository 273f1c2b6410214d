package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// KeySeparator joins the parts of a reminder's composite key.
const KeySeparator = ">"

var (
	ErrIncompleteContext      = errors.New("reminder context is incomplete")
	ErrInvalidConversationKey = errors.New("invalid conversation key")
)

// Reminder is one row of the reminder table.
type Reminder struct {
	ID         int64           `db:"id"`
	Key        string          `db:"key"` // user_id>text>remind_time
	Text       string          `db:"text"`
	UserID     int64           `db:"user_id"`
	UserTag    string          `db:"user_tag"` // @handle or markdown mention
	ChatID     int64           `db:"chat_id"`
	RemindTime string          `db:"remind_time"` // ISO-8601, UTC
	Offset     *int            `db:"offset"`      // nil -> created without a known offset
	Expired    bool            `db:"expired"`
	JobContext json.RawMessage `db:"job_context"` // ReminderContext snapshot
}

// Context decodes the stored dialogue snapshot used to re-arm the reminder.
func (r *Reminder) Context() (ReminderContext, error) {
	var rc ReminderContext
	if len(r.JobContext) == 0 {
		return rc, fmt.Errorf("reminder %d: %w", r.ID, ErrIncompleteContext)
	}
	if err := json.Unmarshal(r.JobContext, &rc); err != nil {
		return rc, fmt.Errorf("reminder %d: decode job context: %w", r.ID, err)
	}
	if err := rc.ValidateScheduled(); err != nil {
		return rc, fmt.Errorf("reminder %d: %w", r.ID, err)
	}
	return rc, nil
}

// ReminderFilter is an exact-match filter; zero fields are ignored.
type ReminderFilter struct {
	ID      int64
	Key     string
	Text    string
	UserID  int64
	Expired *bool
}

// Todo is one row of the todo table.
type Todo struct {
	ID   int64  `db:"id"`
	Text string `db:"text"`
	Done bool   `db:"done"`
}

// ReminderContext carries an in-progress reminder across dialogue turns.
// It lives in chat data and is snapshotted as the armed job's payload.
// JSON names match the rows written by earlier versions of the bot.
type ReminderContext struct {
	Text          string `json:"thing_to_remind"`
	UserID        int64  `json:"user_id"`
	UserTag       string `json:"user_tag"`
	ChatID        int64  `json:"chat_id"`
	Offset        int    `json:"offset"`
	RemindDateISO string `json:"remind_date_iso,omitempty"`
}

// UnmarshalJSON accepts offsets written as floats ("-10800.0").
func (c *ReminderContext) UnmarshalJSON(b []byte) error {
	type plain ReminderContext
	aux := struct {
		*plain
		Offset *json.Number `json:"offset"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Offset != nil {
		off, err := wholeSeconds(*aux.Offset)
		if err != nil {
			return err
		}
		c.Offset = off
	}
	return nil
}

// Validate checks the fields needed before a remind time is chosen.
func (c ReminderContext) Validate() error {
	switch {
	case strings.TrimSpace(c.Text) == "":
		return fmt.Errorf("%w: missing text", ErrIncompleteContext)
	case c.UserID == 0:
		return fmt.Errorf("%w: missing user", ErrIncompleteContext)
	case c.ChatID == 0:
		return fmt.Errorf("%w: missing chat", ErrIncompleteContext)
	}
	return nil
}

// ValidateScheduled also requires the resolved UTC instant.
func (c ReminderContext) ValidateScheduled() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.RemindDateISO == "" {
		return fmt.Errorf("%w: missing remind time", ErrIncompleteContext)
	}
	return nil
}

// Key is the reminder's composite lookup key.
func (c ReminderContext) Key() string {
	return ReminderKey(c.UserID, c.Text, c.RemindDateISO)
}

func ReminderKey(userID int64, text, remindISO string) string {
	return strings.Join([]string{strconv.FormatInt(userID, 10), text, remindISO}, KeySeparator)
}

// UserData is what the bot remembers about a user between restarts.
type UserData struct {
	Offset *int `json:"offset,omitempty"` // seconds east of UTC
}

func (u *UserData) UnmarshalJSON(b []byte) error {
	var aux struct {
		Offset *json.Number `json:"offset"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	u.Offset = nil
	if aux.Offset != nil {
		off, err := wholeSeconds(*aux.Offset)
		if err != nil {
			return err
		}
		u.Offset = &off
	}
	return nil
}

// wholeSeconds reads an offset stored either as 3600 or 3600.0.
func wholeSeconds(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("offset %q is not a whole number of seconds", n.String())
	}
	return int(f), nil
}

func (u UserData) Equal(o UserData) bool {
	if u.Offset == nil || o.Offset == nil {
		return u.Offset == nil && o.Offset == nil
	}
	return *u.Offset == *o.Offset
}

func (u UserData) Clone() UserData {
	if u.Offset == nil {
		return u
	}
	off := *u.Offset
	return UserData{Offset: &off}
}

// OffsetOr returns the stored offset or def when the user never set one.
func (u UserData) OffsetOr(def int) int {
	if u.Offset == nil {
		return def
	}
	return *u.Offset
}

// ConversationKey identifies one participant's conversation in one chat.
// It is stored as the text "(chat, user)".
type ConversationKey struct {
	ChatID int64
	UserID int64
}

func (k ConversationKey) String() string {
	return fmt.Sprintf("(%d, %d)", k.ChatID, k.UserID)
}

func (k ConversationKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ConversationKey) UnmarshalText(b []byte) error {
	parsed, err := ParseConversationKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseConversationKey reads "(chat, user)". Only integers are accepted.
func ParseConversationKey(s string) (ConversationKey, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return ConversationKey{}, fmt.Errorf("%w: %q", ErrInvalidConversationKey, s)
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 2 {
		return ConversationKey{}, fmt.Errorf("%w: %q", ErrInvalidConversationKey, s)
	}
	var ids [2]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return ConversationKey{}, fmt.Errorf("%w: %q", ErrInvalidConversationKey, s)
		}
		ids[i] = n
	}
	return ConversationKey{ChatID: ids[0], UserID: ids[1]}, nil
}
