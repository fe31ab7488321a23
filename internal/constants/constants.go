// Package constants provides centralized constant values used throughout injecteur.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Environment variable names read by the ENVIRONMENT phase.
const (
	EnvScenario      = "SCENARIO"
	EnvScenarioAlias = "NOM_SCENARIO"
	EnvScenarioType  = "TYPE_SCENARIO"
	EnvPlatform      = "PLATEFORME"
	EnvBrowser       = "NAVIGATEUR"
	EnvHeadless      = "HEADLESS"
	EnvLecture       = "LECTURE"
	EnvInscription   = "INSCRIPTION"
	EnvRelance       = "RELANCE"
	EnvProxy         = "PROXY"
	EnvSimuPath      = "SIMU_PATH"
	EnvScenariosPath = "SCENARIOS_PATH"
	EnvOutputPath    = "OUTPUT_PATH"
	EnvBrowsersPath  = "PLAYWRIGHT_NAVIGATEURS_PATH"
	EnvUsersPath     = "UTILISATEURS_ISAC_PATH"
	EnvAPIBaseURL    = "URL_BASE_API_INJECTEUR"
	EnvVMName        = "NOM_VM_WINDOWS"
	EnvHostname      = "HOSTNAME"
	EnvInjecteurHome = "INJECTEUR_HOME"

	// ToolEnvPrefix prefixes the injector's own settings (INJECTEUR_METRICS_FILE, ...).
	ToolEnvPrefix = "INJECTEUR"
)

// Values used when building execution reports.
const (
	// DefaultInjector is reported when the host name cannot be determined.
	DefaultInjector = "unknown"

	// DefaultInterface is reported when no non-loopback IPv4 address is found.
	DefaultInterface = "127.0.0.1"

	// NoAPIApplication replaces the application name in output paths when
	// no metadata was read from the API.
	NoAPIApplication = "NO_API"
)

// Default values applied when the matching environment variable is unset.
const (
	DefaultSimuPath      = "/opt/simulateur_v6"
	DefaultScenariosPath = "/opt/scenarios_v6"
	DefaultOutputPath    = "/opt/scenarios_v6"
	DefaultBrowsersPath  = "/browsers"
	DefaultUsersPath     = "/opt/scenarios_v6/config/utilisateurs"
	DefaultAPIBaseURL    = "http://localhost/"
)

// Timeouts.
const (
	// APITimeout bounds every call to the injector API. There is no retry.
	APITimeout = 10 * time.Second

	// DefaultStepTimeout bounds a single http step when the step sets none.
	DefaultStepTimeout = 30 * time.Second

	// LockTimeout bounds how long the rotation cache waits for its file lock.
	LockTimeout = 5 * time.Second

	// LockRetryInterval is the sleep between two lock attempts.
	LockRetryInterval = 50 * time.Millisecond
)

// Log rotation settings for the injector log file.
const (
	LogMaxSizeMB  = 10
	LogMaxBackups = 5
	LogMaxAgeDays = 30
	LogCompress   = true
)
