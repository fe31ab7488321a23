package tui

import (
	"encoding/json"
	"io"

	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/errors"
)

// JSONOutput provides structured JSON output for non-TTY environments.
// Every message is one JSON object per line.
type JSONOutput struct {
	encoder *json.Encoder
}

// NewJSONOutput creates a new JSONOutput.
func NewJSONOutput(w io.Writer) *JSONOutput {
	return &JSONOutput{encoder: json.NewEncoder(w)}
}

type jsonMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type jsonError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Phase      string `json:"phase,omitempty"`
	Domain     string `json:"domain,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

type jsonReport struct {
	Type   string                  `json:"type"`
	Report *domain.ExecutionReport `json:"report"`
}

// Success outputs {"type": "success", "message": "..."}.
func (o *JSONOutput) Success(msg string) {
	o.message("success", msg)
}

// Error outputs the error with its lifecycle classification, if any.
func (o *JSONOutput) Error(err error) {
	out := jsonError{Type: "error", Message: err.Error()}
	_, out.Suggestion = errors.Actionable(err)
	if le, ok := errors.AsLifecycleError(err); ok {
		out.Phase = le.Phase
		out.Domain = string(le.Domain)
		out.Kind = string(le.Kind)
	}
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(out)
}

// Warning outputs {"type": "warning", "message": "..."}.
func (o *JSONOutput) Warning(msg string) {
	o.message("warning", msg)
}

// Info outputs {"type": "info", "message": "..."}.
func (o *JSONOutput) Info(msg string) {
	o.message("info", msg)
}

// Report outputs {"type": "report", "report": {...}}.
func (o *JSONOutput) Report(r *domain.ExecutionReport) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(jsonReport{Type: "report", Report: r})
}

// JSON outputs an arbitrary value as JSON.
func (o *JSONOutput) JSON(v any) error {
	return o.encoder.Encode(v)
}

func (o *JSONOutput) message(kind, msg string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(jsonMessage{Type: kind, Message: msg})
}
