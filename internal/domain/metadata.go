package domain

// Application is the application a scenario belongs to.
type Application struct {
	Name string `json:"nom"`
}

// PlanningEntry is one permitted time window ("plage horaire").
// Day is the ISO weekday, 1=Monday through 7=Sunday; Start and End use HH:MM:SS.
type PlanningEntry struct {
	Day   int    `json:"jour"`
	Start string `json:"heure_debut"`
	End   string `json:"heure_fin"`
}

// ScenarioMetadata is the scenario record served by GET injapi/scenario/{id}.
type ScenarioMetadata struct {
	Application Application `json:"application"`

	// Name is the display name of the scenario.
	Name string `json:"nom"`

	// HolidayAllowed is flag_ferie. Nil means holiday execution is not allowed.
	HolidayAllowed *bool `json:"flag_ferie"`

	// Planning is the weekly table of permitted windows.
	Planning []PlanningEntry `json:"planning"`
}

// ApplicationName returns the application name, or "" when metadata is nil.
func (m *ScenarioMetadata) ApplicationName() string {
	if m == nil {
		return ""
	}
	return m.Application.Name
}

// ScenarioName returns the scenario display name, or "" when metadata is nil.
func (m *ScenarioMetadata) ScenarioName() string {
	if m == nil {
		return ""
	}
	return m.Name
}

// HolidayExecutionAllowed reports whether flag_ferie is explicitly true.
func (m *ScenarioMetadata) HolidayExecutionAllowed() bool {
	return m != nil && m.HolidayAllowed != nil && *m.HolidayAllowed
}
