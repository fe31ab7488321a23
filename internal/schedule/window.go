package schedule

import (
	"fmt"
	"time"

	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/errors"
)

// timeLayout is the format of heure_debut and heure_fin.
const timeLayout = "15:04:05"

// Window is a parsed planning entry. Start and End are offsets from midnight.
type Window struct {
	Day   int
	Start time.Duration
	End   time.Duration
	raw   string
}

// String returns the window as "HH:MM:SS-HH:MM:SS".
func (w Window) String() string {
	return w.raw
}

// Contains reports whether offset lies in [Start, End].
func (w Window) Contains(offset time.Duration) bool {
	return offset >= w.Start && offset <= w.End
}

// ParseWindow validates a planning entry. An entry whose start is not
// strictly before its end is rejected.
func ParseWindow(entry domain.PlanningEntry) (Window, error) {
	start, err := parseTimeOfDay(entry.Start)
	if err != nil {
		return Window{}, fmt.Errorf("%w: heure_debut %q (expected HH:MM:SS)", errors.ErrInvalidTimeWindow, entry.Start)
	}
	end, err := parseTimeOfDay(entry.End)
	if err != nil {
		return Window{}, fmt.Errorf("%w: heure_fin %q (expected HH:MM:SS)", errors.ErrInvalidTimeWindow, entry.End)
	}
	if start >= end {
		return Window{}, fmt.Errorf("%w: start %s is not before end %s", errors.ErrInvalidTimeWindow, entry.Start, entry.End)
	}
	return Window{
		Day:   entry.Day,
		Start: start,
		End:   end,
		raw:   entry.Start + "-" + entry.End,
	}, nil
}

func parseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// offsetOf returns the wall-clock time of t as an offset from midnight,
// truncated to the second like the planning itself.
func offsetOf(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

// isoWeekday returns 1 for Monday through 7 for Sunday.
func isoWeekday(t time.Time) int {
	if wd := t.Weekday(); wd != time.Sunday {
		return int(wd)
	}
	return 7
}
