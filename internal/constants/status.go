package constants

// StepStatus is the outcome of a scenario step, and of the execution as a whole.
// The numeric values are part of the injector API contract.
type StepStatus int

// Step statuses, ordered as the API expects them.
const (
	StatusSuccess StepStatus = 0
	StatusWarning StepStatus = 1
	StatusFailure StepStatus = 2
	StatusUnknown StepStatus = 3
)

// String returns the display name of the status.
func (s StepStatus) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusWarning:
		return "WARNING"
	case StatusFailure:
		return "FAILURE"
	case StatusUnknown:
		return "UNKNOWN"
	default:
		return "INVALID"
	}
}

// Valid reports whether s is one of the four API statuses.
func (s StepStatus) Valid() bool {
	return s >= StatusSuccess && s <= StatusUnknown
}

// ScenarioType selects the automation driver a scenario needs.
type ScenarioType string

// Scenario types accepted in TYPE_SCENARIO (case-insensitive).
const (
	ScenarioTypeWeb       ScenarioType = "web"
	ScenarioTypeExadata   ScenarioType = "exadata"
	ScenarioTypeTechnique ScenarioType = "technique"
)

// ScenarioTypes returns the accepted scenario types.
func ScenarioTypes() []ScenarioType {
	return []ScenarioType{ScenarioTypeWeb, ScenarioTypeExadata, ScenarioTypeTechnique}
}

// Platform is the target environment of a run.
type Platform string

// Platforms accepted in PLATEFORME.
const (
	PlatformDev  Platform = "dev"
	PlatformTest Platform = "test"
	PlatformProd Platform = "prod"
)

// Platforms returns the accepted platforms.
func Platforms() []Platform {
	return []Platform{PlatformDev, PlatformTest, PlatformProd}
}

// IsPlatform reports whether name is one of the accepted platform names.
func IsPlatform(name string) bool {
	for _, p := range Platforms() {
		if string(p) == name {
			return true
		}
	}
	return false
}

// Browser is the browser engine driving web scenarios.
type Browser string

// Browsers accepted in NAVIGATEUR.
const (
	BrowserFirefox  Browser = "firefox"
	BrowserChromium Browser = "chromium"
	BrowserEdge     Browser = "msedge"
)

// Browsers returns the accepted browsers.
func Browsers() []Browser {
	return []Browser{BrowserFirefox, BrowserChromium, BrowserEdge}
}

// Phase names one step of the initialization pipeline.
type Phase string

// Initialization phases, in execution order.
const (
	PhaseEnvironment   Phase = "ENVIRONMENT"
	PhaseConfigBase    Phase = "CONFIG_BASE"
	PhaseAPIRead       Phase = "API_READ"
	PhaseScheduleCheck Phase = "SCHEDULE_CHECK"
	PhaseConfigFinal   Phase = "CONFIG_FINAL"
	PhaseOutputDirs    Phase = "OUTPUT_DIRS"
	PhaseReady         Phase = "READY"
)

// Phases returns the six initialization phases in order.
func Phases() []Phase {
	return []Phase{
		PhaseEnvironment,
		PhaseConfigBase,
		PhaseAPIRead,
		PhaseScheduleCheck,
		PhaseConfigFinal,
		PhaseOutputDirs,
	}
}
