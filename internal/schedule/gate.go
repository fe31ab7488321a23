// Package schedule decides whether a scenario may run at a given instant,
// from the holiday flag and weekly planning served by the injector API.
//
// Import rules:
//   - CAN import: internal/domain, internal/errors, std lib
//   - MUST NOT import: internal/config, internal/lifecycle, internal/cli
package schedule

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/errors"
)

// Denial reasons.
const (
	ReasonHoliday   = "holiday execution not permitted"
	ReasonNoWindow  = "no time window defined for this weekday"
	ReasonOutOfPlan = "outside every time window"
)

// DeniedError is returned when the planning forbids execution.
// It matches errors.ErrSchedulingDenied.
type DeniedError struct {
	Reason string
	// Windows lists the windows that were tried, when Reason is ReasonOutOfPlan.
	Windows []string
	At      time.Time
}

// Error implements the error interface.
func (e *DeniedError) Error() string {
	msg := fmt.Sprintf("%s at %s: %s", errors.ErrSchedulingDenied, e.At.Format("2006-01-02 15:04:05"), e.Reason)
	if len(e.Windows) > 0 {
		msg += " (" + strings.Join(e.Windows, ", ") + ")"
	}
	return msg
}

// Is makes errors.Is(err, errors.ErrSchedulingDenied) true.
func (e *DeniedError) Is(target error) bool {
	return target == errors.ErrSchedulingDenied
}

// IsDenied extracts a DeniedError from an error chain.
func IsDenied(err error) (*DeniedError, bool) {
	var denied *DeniedError
	if stderrors.As(err, &denied) {
		return denied, true
	}
	return nil, false
}

// Gate enforces the holiday flag and the weekly planning.
type Gate struct {
	calendar HolidayCalendar
	logger   zerolog.Logger
}

// NewGate creates a Gate. A nil calendar never reports a holiday.
func NewGate(calendar HolidayCalendar, logger zerolog.Logger) *Gate {
	return &Gate{
		calendar: calendar,
		logger:   logger.With().Str("component", "schedule").Logger(),
	}
}

// Authorize returns nil when meta permits execution at now.
//
// On a holiday, flag_ferie must be explicitly true. Then the windows of
// now's ISO weekday are checked in order: each is validated before it is
// compared, and the first one containing now (bounds included) authorizes.
// Windows after it are never examined. A malformed window wraps
// errors.ErrInvalidTimeWindow; any other refusal is a *DeniedError.
func (g *Gate) Authorize(meta *domain.ScenarioMetadata, now time.Time) error {
	holiday := g.isHoliday(now)
	if holiday && !meta.HolidayExecutionAllowed() {
		g.logger.Warn().Time("at", now).Str("holiday", g.holidayName(now)).Msg("holiday execution not permitted")
		return &DeniedError{Reason: ReasonHoliday, At: now}
	}
	if holiday {
		g.logger.Info().Time("at", now).Str("holiday", g.holidayName(now)).Msg("holiday execution permitted by flag_ferie")
	}

	day := isoWeekday(now)
	offset := offsetOf(now)
	var tried []string
	if meta != nil {
		for _, entry := range meta.Planning {
			if entry.Day != day {
				continue
			}
			w, err := ParseWindow(entry)
			if err != nil {
				return err
			}
			if w.Contains(offset) {
				g.logger.Info().Str("window", w.String()).Msg("execution authorized")
				return nil
			}
			tried = append(tried, w.String())
		}
	}
	g.logger.Debug().Int("day", day).Strs("windows", tried).Msg("no planning window matched")

	if len(tried) == 0 {
		return &DeniedError{Reason: ReasonNoWindow, At: now}
	}
	return &DeniedError{Reason: ReasonOutOfPlan, Windows: tried, At: now}
}

// holidayNamer is implemented by calendars that can name a holiday.
type holidayNamer interface {
	HolidayName(t time.Time) string
}

func (g *Gate) holidayName(now time.Time) string {
	if n, ok := g.calendar.(holidayNamer); ok {
		return n.HolidayName(now)
	}
	return ""
}

func (g *Gate) isHoliday(now time.Time) bool {
	if g.calendar == nil {
		return false
	}
	return g.calendar.IsHoliday(now)
}
