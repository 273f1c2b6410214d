package utils

import (
	"errors"
	"testing"
	"time"
)

func TestFormatOffset(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{-9000, "-2:30"},
		{1800, "+0:30"},
		{0, "+0:00"},
		{-10800, "-3:00"},
		{19800, "+5:30"},
		{-60, "-0:01"},
	}
	for _, tt := range tests {
		if got := FormatOffset(tt.seconds); got != tt.want {
			t.Errorf("FormatOffset(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestSplitOffsetNegative(t *testing.T) {
	h, m := SplitOffset(-9000)
	if h != 2 || m != 30 {
		t.Errorf("SplitOffset(-9000) = %d, %d, want 2, 30", h, m)
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	offsets := []int{-43200, -10800, -9000, 0, 1800, 19800, 50400}
	for day := 0; day < 366; day += 17 {
		for hour := 0; hour < 24; hour += 5 {
			for _, o := range offsets {
				ts := base.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + 13*time.Minute)
				if got := OffsetToUTC(UTCToUser(ts, o), o); !got.Equal(ts) {
					t.Fatalf("round trip of %v with offset %d = %v", ts, o, got)
				}
			}
		}
	}
}

func TestOffsetToUTCWestOfGreenwich(t *testing.T) {
	local := time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)
	got := OffsetToUTC(local, -10800)
	if got.Hour() != 18 || got.Minute() != 0 {
		t.Errorf("OffsetToUTC(15:00, -10800) = %s, want 18:00", got.Format("15:04"))
	}
	if back := UTCToUser(got, -10800); back.Format("15:04") != "15:00" {
		t.Errorf("UTCToUser() = %s, want 15:00", back.Format("15:04"))
	}
}

func TestUTCOffsetSeconds(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 42, 0, time.UTC)
	tests := []struct {
		name  string
		day   int
		month time.Month
		hour  int
		min   int
		now   time.Time
		want  int
	}{
		{"utc-3", 17, time.October, 9, 0, now, -10800},
		{"utc+5:30", 17, time.October, 17, 30, now, 19800},
		{"next day", 18, time.October, 1, 0, now, 13 * Hour},
		{"new year ahead", 1, time.January, 2, 0, time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC), 3 * Hour},
		{"new year behind", 31, time.December, 20, 0, time.Date(2027, 1, 1, 1, 0, 0, 0, time.UTC), -5 * Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UTCOffsetSeconds(tt.day, tt.month, tt.hour, tt.min, tt.now)
			if err != nil {
				t.Fatalf("UTCOffsetSeconds() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("UTCOffsetSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUTCOffsetSecondsOutOfRange(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	if _, err := UTCOffsetSeconds(20, time.October, 12, 0, now); !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("UTCOffsetSeconds() error = %v, want ErrInvalidOffset", err)
	}
}

func TestParseUserTime(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	got, err := ParseUserTime(" 17/10 09:00 ", now)
	if err != nil {
		t.Fatalf("ParseUserTime() error = %v", err)
	}
	if got != -10800 {
		t.Errorf("ParseUserTime() = %d, want -10800", got)
	}

	for _, bad := range []string{"", "9:00", "32/10 09:00", "17/13 09:00", "tomorrow"} {
		if _, err := ParseUserTime(bad, now); err == nil {
			t.Errorf("ParseUserTime(%q) expected error", bad)
		}
	}
}

func TestISO(t *testing.T) {
	ts := time.Date(2026, 10, 17, 12, 20, 5, 999, time.UTC)
	s := FormatISO(ts)
	if s != "2026-10-17T12:20:05Z" {
		t.Errorf("FormatISO() = %q", s)
	}
	back, err := ParseISO(s)
	if err != nil {
		t.Fatalf("ParseISO() error = %v", err)
	}
	if !back.Equal(ts.Truncate(time.Second)) {
		t.Errorf("ParseISO() = %v", back)
	}

	legacy, err := ParseISO("2026-10-17T12:20:05.123456")
	if err != nil {
		t.Fatalf("ParseISO(legacy) error = %v", err)
	}
	if legacy.Location() != time.UTC || legacy.Minute() != 20 {
		t.Errorf("ParseISO(legacy) = %v", legacy)
	}

	if _, err := ParseISO("yesterday"); err == nil {
		t.Error("ParseISO(yesterday) expected error")
	}
}

func TestFormatDelay(t *testing.T) {
	tests := map[int]string{
		5 * Minute:  "5 Mins",
		30 * Minute: "30 Mins",
		Hour:        "1 Hour",
		48 * Hour:   "48 Hours",
	}
	for in, want := range tests {
		if got := FormatDelay(in); got != want {
			t.Errorf("FormatDelay(%d) = %q, want %q", in, got, want)
		}
	}
}
