package model

import (
	"strings"
	"time"
)

// Timeslot is one bookable window offered by a restaurant, expressed as
// wall-clock "HH:MM" start and end times.
type Timeslot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Label returns the canonical "HH:MM-HH:MM" form used as the timeslot key in
// reservations and ledger rows.
func (t Timeslot) Label() string { return t.Start + "-" + t.End }

// Valid reports whether both ends are well-formed HH:MM times and the window
// is non-empty.
func (t Timeslot) Valid() bool {
	s, err1 := time.Parse("15:04", t.Start)
	e, err2 := time.Parse("15:04", t.End)
	if err1 != nil || err2 != nil {
		return false
	}
	return s.Before(e)
}

// ParseTimeslot splits a "HH:MM-HH:MM" label on its first dash.  It returns
// false when the label has no dash or either side is empty.
func ParseTimeslot(label string) (Timeslot, bool) {
	start, end, ok := strings.Cut(strings.TrimSpace(label), "-")
	if !ok {
		return Timeslot{}, false
	}
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return Timeslot{}, false
	}
	return Timeslot{Start: start, End: end}, true
}
