package constants

// Layout of the scenarios tree under SCENARIOS_PATH.
const (
	// ConfigDir holds every configuration file.
	ConfigDir = "config"

	// ScenarioConfigDir holds one <scenario>.conf per scenario, under ConfigDir.
	ScenarioConfigDir = "scenarios"

	// CommonConfigDir holds the shared fragments referenced by config_commune, under ConfigDir.
	CommonConfigDir = "commun"

	// ConfigExtension is the extension of scenario, common and credential files.
	ConfigExtension = ".conf"

	// ErrorPatternsDir holds the shared error-pattern file.
	ErrorPatternsDir = "erreurs"

	// ErrorPatternsFile is the shared error-pattern file name.
	ErrorPatternsFile = "erreurs.yaml"

	// ExadataImagesDir is the root of the reference images for exadata scenarios.
	ExadataImagesDir = "scenarios_exadata/images"
)

// Layout of the output tree under OUTPUT_PATH.
const (
	// ScreenshotsDir is the root of the per-run screenshot directories.
	ScreenshotsDir = "screenshots"

	// ReportsDir is the root of the per-run report directories.
	ReportsDir = "rapports"

	// CacheDir holds the rotation index files.
	CacheDir = "cache"

	// ReportFileName is the name of the execution report inside a report directory.
	ReportFileName = "scenario.json"

	// MetricsFileName is the Prometheus textfile written next to the report.
	MetricsFileName = "metrics.prom"
)

// Injector home layout (INJECTEUR_HOME, default ~/.injecteur).
const (
	InjecteurHome = ".injecteur"
	LogsDir       = "logs"
	LogFileName   = "injecteur.log"
)

// Directory and file permissions for everything the injector writes.
const (
	DirPerm  = 0o750
	FilePerm = 0o600
)
