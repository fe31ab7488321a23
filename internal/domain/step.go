// Package domain provides shared domain types for injecteur: step results,
// execution reports and the scenario metadata served by the injector API.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// JSON field names follow the injector API contract (French, snake_case).
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/mrz1836/injecteur/internal/constants"
)

// TimestampLayout is the local ISO-8601 layout used for report and step dates.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// FormatTimestamp formats t the way the injector API stores dates.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Seconds is a duration in seconds kept at millisecond precision.
// It is encoded as a JSON number with exactly three decimals.
type Seconds float64

// SecondsOf converts d to Seconds, rounded to the millisecond.
func SecondsOf(d time.Duration) Seconds {
	return Seconds(math.Round(d.Seconds()*1000) / 1000)
}

// Duration converts s back to a time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}

// String formats s with three decimals.
func (s Seconds) String() string {
	return strconv.FormatFloat(float64(s), 'f', 3, 64)
}

// MarshalJSON implements json.Marshaler.
func (s Seconds) MarshalJSON() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string ("1.250").
func (s *Seconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		data = []byte(str)
	}
	if len(data) == 0 {
		*s = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(data), err)
	}
	*s = Seconds(v)
	return nil
}

// StepResult is the outcome of one scenario step ("brique" in the API).
// It is created once per step and never modified after being recorded.
type StepResult struct {
	// Name is the step name.
	Name string `json:"nom"`

	// Order is the 1-based position of the step in the run.
	Order int `json:"ordre"`

	// Date is when the step started, formatted with FormatTimestamp.
	Date string `json:"date"`

	// Duration is the step's wall time.
	Duration Seconds `json:"duree"`

	// Status is the step outcome.
	Status constants.StepStatus `json:"status"`

	// URL is the target URL at the time the step ended.
	URL string `json:"url"`

	// Comment is the free-text outcome description.
	Comment string `json:"commentaire"`
}
