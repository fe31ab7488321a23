package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mrz1836/injecteur/internal/constants"
)

// Identifier is the injector API primary key of a scenario ("identifiant").
// Numeric identifiers are encoded as JSON numbers, anything else as a string.
type Identifier string

// IdentifierFrom converts a configuration value (int, float, string) to an Identifier.
// It returns "" for nil or unsupported values.
func IdentifierFrom(v any) Identifier {
	switch id := v.(type) {
	case nil:
		return ""
	case Identifier:
		return id
	case string:
		return Identifier(strings.TrimSpace(id))
	case int:
		return Identifier(strconv.Itoa(id))
	case int64:
		return Identifier(strconv.FormatInt(id, 10))
	case uint64:
		return Identifier(strconv.FormatUint(id, 10))
	case float64:
		if id == math.Trunc(id) {
			return Identifier(strconv.FormatInt(int64(id), 10))
		}
		return Identifier(strconv.FormatFloat(id, 'f', -1, 64))
	case json.Number:
		return Identifier(id.String())
	default:
		return ""
	}
}

// String returns the identifier as text.
func (id Identifier) String() string {
	return string(id)
}

// IsZero reports whether the identifier is empty.
func (id Identifier) IsZero() bool {
	return id == ""
}

// numeric reports whether id is a canonical unsigned integer.
func (id Identifier) numeric() bool {
	if id == "" || (len(id) > 1 && id[0] == '0') {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler.
func (id Identifier) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON number or string.
func (id *Identifier) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = Identifier(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid identifier %s: %w", string(data), err)
	}
	*id = Identifier(n.String())
	return nil
}

// ExecutionReport is the execution-level result sent to the injector API
// and saved as scenario.json.
type ExecutionReport struct {
	Identifier     Identifier           `json:"identifiant"`
	Scenario       string               `json:"scenario"`
	Date           string               `json:"date"`
	Duration       Seconds              `json:"duree"`
	Status         constants.StepStatus `json:"status"`
	StepCount      int                  `json:"nb_scene"`
	Comment        string               `json:"commentaire"`
	Injector       string               `json:"injecteur"`
	Browser        string               `json:"navigateur"`
	InterfaceIP    string               `json:"interface_ip"`
	InitialStatus  constants.StepStatus `json:"status_initial"`
	InitialComment string               `json:"commentaire_initial"`
	Steps          []StepResult         `json:"briques"`
}

// Failed reports whether any recorded step ended in FAILURE.
func (r *ExecutionReport) Failed() bool {
	for _, s := range r.Steps {
		if s.Status == constants.StatusFailure {
			return true
		}
	}
	return false
}
