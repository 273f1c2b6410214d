package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Minute = 60
	Hour   = 60 * Minute

	// ISOLayout is how remind times are stored: UTC, second precision.
	ISOLayout = "2006-01-02T15:04:05Z07:00"

	// UserTimeLayout is the d/m HH:MM format users type their clock in.
	UserTimeLayout = "2/1 15:04"

	maxOffset = 14 * Hour
)

var (
	ErrInvalidTime   = errors.New("invalid time, expected d/m HH:MM")
	ErrInvalidOffset = errors.New("utc offset out of range")
)

// UTCOffsetSeconds returns the signed distance in seconds between the wall
// clock a user reports and the current UTC instant.
//
// Users near new year may be on a different calendar year than UTC, so
// the closest of the three candidate years wins.
func UTCOffsetSeconds(day int, month time.Month, hour, minute int, now time.Time) (int, error) {
	now = now.UTC()
	best := 0
	found := false
	for _, year := range []int{now.Year() - 1, now.Year(), now.Year() + 1} {
		userNow := time.Date(year, month, day, hour, minute, now.Second(), now.Nanosecond(), time.UTC)
		if userNow.Day() != day || userNow.Month() != month {
			continue
		}
		diff := int(userNow.Sub(now) / time.Second)
		if !found || abs(diff) < abs(best) {
			best, found = diff, true
		}
	}
	if !found {
		return 0, ErrInvalidTime
	}
	if abs(best) > maxOffset {
		return 0, ErrInvalidOffset
	}
	return best, nil
}

// ParseUserTime reads "d/m HH:MM" and computes the offset against now.
func ParseUserTime(s string, now time.Time) (int, error) {
	t, err := time.Parse(UserTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidTime
	}
	return UTCOffsetSeconds(t.Day(), t.Month(), t.Hour(), t.Minute(), now)
}

// OffsetToUTC turns a date read in the user's wall clock into UTC.
// A user at UTC-3 (offset -10800) typing 15:00 means 18:00 UTC.
func OffsetToUTC(date time.Time, offset int) time.Time {
	return date.Add(-time.Duration(offset) * time.Second)
}

// UTCToUser re-localizes a UTC instant to the user's wall clock.
func UTCToUser(date time.Time, offset int) time.Time {
	return date.Add(time.Duration(offset) * time.Second)
}

// UserNow is the user's current wall clock expressed as a UTC-located time.
func UserNow(now time.Time, offset int) time.Time {
	return UTCToUser(now.UTC(), offset)
}

// SplitOffset decomposes absolute seconds so negative offsets do not floor
// towards the next hour.
func SplitOffset(seconds int) (h, m int) {
	seconds = abs(seconds)
	h, rest := seconds/Hour, seconds%Hour
	return h, rest / Minute
}

// FormatOffset renders an offset as ±H:MM.
func FormatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
	}
	h, m := SplitOffset(seconds)
	return fmt.Sprintf("%s%d:%02d", sign, h, m)
}

// FormatDelay renders a delay in seconds as a short button label.
func FormatDelay(seconds int) string {
	switch {
	case seconds < Hour:
		return fmt.Sprintf("%d Mins", seconds/Minute)
	case seconds == Hour:
		return "1 Hour"
	default:
		return fmt.Sprintf("%d Hours", seconds/Hour)
	}
}

// FormatISO is the storage representation of a remind time.
func FormatISO(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(ISOLayout)
}

// ParseISO accepts stored remind times, including zone-less ones written
// by older versions of the bot, which are UTC.
func ParseISO(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse remind time %q: %w", s, ErrInvalidTime)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
