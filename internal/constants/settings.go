package constants

const (
	// Settings keys
	SettingTraineeName       = "trainee_name"
	SettingTraineeID         = "trainee_id"
	SettingFieldworkState    = "fieldwork_state"
	SettingFieldworkCountry  = "fieldwork_country"
	SettingFieldworkMode     = "fieldwork_mode"
	SettingPrimarySupervisor = "primary_supervisor"
	SettingPersonWideOverlap = "person_wide_overlap"

	// Default Settings Values
	DefaultFieldworkCountry  = "USA"
	DefaultFieldworkMode     = "standard"
	DefaultPersonWideOverlap = false
)
