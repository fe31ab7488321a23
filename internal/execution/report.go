package execution

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/domain"
	"github.com/mrz1836/injecteur/internal/errors"
	"github.com/mrz1836/injecteur/internal/fileutil"
)

// Header carries the execution-level fields of a report.
type Header struct {
	Identifier  domain.Identifier
	Scenario    string
	Start       time.Time
	Injector    string
	Browser     string
	InterfaceIP string
}

// BuildReport assembles the report of a completed run from the recorded steps.
// The initial status and comment equal the final ones; a relance overwrites
// the final pair only.
func BuildReport(h Header, agg *Aggregator) *domain.ExecutionReport {
	summary := agg.Finalize()
	return &domain.ExecutionReport{
		Identifier:     h.Identifier,
		Scenario:       h.Scenario,
		Date:           domain.FormatTimestamp(h.Start),
		Duration:       summary.Duration,
		Status:         summary.Status,
		StepCount:      agg.Len(),
		Comment:        summary.Comment,
		Injector:       h.Injector,
		Browser:        h.Browser,
		InterfaceIP:    h.InterfaceIP,
		InitialStatus:  summary.Status,
		InitialComment: summary.Comment,
		Steps:          agg.Steps(),
	}
}

// FailureComment is the comment of a run that never started its steps.
func FailureComment(phase string) string {
	return fmt.Sprintf("Erreur lors de l'initialisation du scénario (phase %s) - Scénario non lancé", phase)
}

// BuildFailureReport synthesizes the report of a run whose initialization
// failed in phase: status UNKNOWN, no steps, and elapsed as duration.
func BuildFailureReport(h Header, phase string, elapsed time.Duration) *domain.ExecutionReport {
	comment := FailureComment(phase)
	browser := h.Browser
	if browser == "" {
		browser = constants.DefaultInjector
	}
	return &domain.ExecutionReport{
		Identifier:     h.Identifier,
		Scenario:       h.Scenario,
		Date:           domain.FormatTimestamp(h.Start),
		Duration:       domain.SecondsOf(elapsed),
		Status:         constants.StatusUnknown,
		StepCount:      0,
		Comment:        comment,
		Injector:       h.Injector,
		Browser:        browser,
		InterfaceIP:    constants.DefaultInterface,
		InitialStatus:  constants.StatusUnknown,
		InitialComment: comment,
		Steps:          []domain.StepResult{},
	}
}

// SaveJSON writes r as indented JSON to {dir}/scenario.json and returns the path.
func SaveJSON(dir string, r *domain.ExecutionReport) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: report directory disabled", errors.ErrOutputDirs)
	}
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return "", errors.Wrap(err, "failed to encode execution report")
	}
	path := filepath.Join(dir, constants.ReportFileName)
	if err := fileutil.AtomicWrite(path, append(data, '\n')); err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrOutputDirs, err)
	}
	return path, nil
}

// LoadJSON reads a report written by SaveJSON.
func LoadJSON(path string) (*domain.ExecutionReport, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is chosen by the operator
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read report %s", path)
	}
	var r domain.ExecutionReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrConfigMalformed, path, err)
	}
	return &r, nil
}

// InjectorName returns $HOSTNAME, the system host name, or "unknown".
func InjectorName() string {
	if h := strings.TrimSpace(os.Getenv(constants.EnvHostname)); h != "" {
		return h
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return constants.DefaultInjector
}

// InterfaceIP returns the first non-loopback IPv4 address of the host,
// or 127.0.0.1.
func InterfaceIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return constants.DefaultInterface
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return constants.DefaultInterface
}
