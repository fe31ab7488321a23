package errors

import "errors"

// ErrorInfo is the console text shown for a sentinel, with an optional action.
type ErrorInfo struct {
	Message string
	Action  string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries is ordered: the first sentinel found in the chain wins.
//
//nolint:gochecknoglobals // Static table
var errorInfoEntries = []errorEntry{
	// Environment
	{
		err: ErrMissingEnvVar,
		info: ErrorInfo{
			Message: "A required environment variable is not set.",
			Action:  "Export SCENARIO (or NOM_SCENARIO), and NOM_VM_WINDOWS for exadata scenarios.",
		},
	},
	{
		err: ErrInvalidEnvValue,
		info: ErrorInfo{
			Message: "An environment variable has an unsupported value.",
			Action:  "Booleans accept true/1/yes/on or false/0/no/off; check TYPE_SCENARIO, PLATEFORME and NAVIGATEUR.",
		},
	},
	{
		err: ErrPathInaccessible,
		info: ErrorInfo{
			Message: "A required directory is missing or unreadable.",
			Action:  "Check SCENARIOS_PATH, SIMU_PATH and OUTPUT_PATH on this injector.",
		},
	},

	// Configuration
	{
		err: ErrConfigNotFound,
		info: ErrorInfo{
			Message: "The scenario configuration file was not found.",
			Action:  "Create {scenarios_path}/config/scenarios/<scenario>.conf or fix the scenario name.",
		},
	},
	{
		err: ErrConfigUnreadable,
		info: ErrorInfo{
			Message: "A configuration file could not be read.",
			Action:  "Check file permissions under {scenarios_path}/config.",
		},
	},
	{
		err: ErrConfigMalformed,
		info: ErrorInfo{
			Message: "A configuration file is not valid YAML.",
			Action:  "Fix the YAML syntax; the document root must be a mapping.",
		},
	},
	{
		err: ErrCredentialsNotFound,
		info: ErrorInfo{
			Message: "The ISAC user credentials could not be found for this platform.",
			Action:  "Check utilisateur_isac and UTILISATEURS_ISAC_PATH.",
		},
	},
	{
		err: ErrDecryptFailed,
		info: ErrorInfo{
			Message: "An encrypted credential could not be decrypted.",
			Action:  "Regenerate the credential file with a valid key, iv and payload.",
		},
	},
	{
		err: ErrMissingIdentifier,
		info: ErrorInfo{
			Message: "The scenario configuration has no identifiant.",
			Action:  "Add identifiant to the scenario file, or run with LECTURE=false.",
		},
	},

	// Remote API
	{
		err: ErrAPIRequest,
		info: ErrorInfo{
			Message: "The injector API could not be reached.",
			Action:  "Check URL_BASE_API_INJECTEUR and network access from this injector.",
		},
	},
	{
		err: ErrAPIResponse,
		info: ErrorInfo{
			Message: "The injector API returned an unexpected response.",
			Action:  "Check that the scenario exists in the API under this identifiant.",
		},
	},

	// Scheduling
	{
		err: ErrSchedulingDenied,
		info: ErrorInfo{
			Message: "The scenario is outside of its execution planning.",
		},
	},
	{
		err: ErrInvalidTimeWindow,
		info: ErrorInfo{
			Message: "The scenario planning contains an invalid time window.",
			Action:  "Fix the planning: times use HH:MM:SS and start must be before end.",
		},
	},

	// Execution
	{
		err: ErrOutputDirs,
		info: ErrorInfo{
			Message: "Screenshot and report directories could not be created; reporting is disabled.",
			Action:  "Check OUTPUT_PATH permissions.",
		},
	},
	{
		err: ErrScenarioFailed,
		info: ErrorInfo{
			Message: "The scenario failed. See the step summary above.",
		},
	},
	{
		err: ErrUnknownExecutor,
		info: ErrorInfo{
			Message: "A scenario step uses an unsupported type.",
			Action:  "Use one of the registered step types (for example http).",
		},
	},
	{
		err: ErrRotationEmpty,
		info: ErrorInfo{
			Message: "The rotation list in the scenario configuration is empty.",
			Action:  "Add at least one value to the list named by rotation.",
		},
	},
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Another run holds the rotation cache lock.",
			Action:  "Wait for the other execution of this scenario to finish.",
		},
	},
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Invalid output format.",
			Action:  "Use --output text or --output json.",
		},
	},
}

// lookup walks the chain of err against the known sentinels, in table order.
func lookup(err error) ErrorInfo {
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}
	return ErrorInfo{Message: err.Error()}
}

// Actionable returns the console text for err and a suggested action. The
// message is err.Error() when no sentinel in its chain is known; the action
// is empty when there is nothing the user can do.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := lookup(err)
	return info.Message, info.Action
}
