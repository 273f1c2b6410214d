package handlers

import (
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// NaturalDates parses phrases like "tomorrow at 13:00" or "17/10 09:30".
type NaturalDates struct {
	w *when.Parser
}

func NewNaturalDates() *NaturalDates {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &NaturalDates{w: w}
}

// Parse resolves text against base. Dates that land in the past roll
// forward: a bare clock time to the next day, a day and month to next year.
func (n *NaturalDates) Parse(text string, base time.Time) (time.Time, bool) {
	r, err := n.w.Parse(text, base)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	t := r.Time
	if t.Before(base) {
		if base.Sub(t) < 24*time.Hour {
			t = t.AddDate(0, 0, 1)
		} else {
			t = t.AddDate(1, 0, 0)
		}
	}
	return t, true
}
