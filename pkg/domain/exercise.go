package domain

const (
	// DefaultTimerSeconds is the rest duration given to new exercises.
	DefaultTimerSeconds = 60

	DefaultUnitPrimary   = "kg"
	DefaultUnitSecondary = "reps"
)

// UnitPreset is a pair of measurement units offered when creating an exercise.
type UnitPreset struct {
	Primary   string `json:"primary" yaml:"primary"`
	Secondary string `json:"secondary" yaml:"secondary"`
}

// UnitPresets lists the unit pairs supported out of the box.
var UnitPresets = []UnitPreset{
	{Primary: "kg", Secondary: "reps"},
	{Primary: "km", Secondary: "min"},
	{Primary: "m", Secondary: "seg"},
}

// Exercise is a named movement in a user's catalog.
// It is read-only for the duration of a session.
type Exercise struct {
	ID            string `json:"id" yaml:"id" mapstructure:"id"`
	UserID        string `json:"user_id" yaml:"user_id" mapstructure:"user_id"`
	Name          string `json:"name" yaml:"name" mapstructure:"name"`
	MuscleGroup   string `json:"muscle_group" yaml:"muscle_group" mapstructure:"muscle_group"`
	Notes         string `json:"notes,omitempty" yaml:"notes" mapstructure:"notes"`
	TimerEnabled  bool   `json:"timer_enabled" yaml:"timer_enabled" mapstructure:"timer_enabled"`
	TimerSeconds  int    `json:"timer_seconds" yaml:"timer_seconds" mapstructure:"timer_seconds"`
	UnitPrimary   string `json:"unit_primary" yaml:"unit_primary" mapstructure:"unit_primary"`
	UnitSecondary string `json:"unit_secondary" yaml:"unit_secondary" mapstructure:"unit_secondary"`
}

// NewExercise creates an exercise with the catalog defaults:
// an enabled 60 second rest timer and kg/reps units.
func NewExercise(userID, id, name, muscleGroup string) *Exercise {
	return &Exercise{
		ID:            id,
		UserID:        userID,
		Name:          name,
		MuscleGroup:   muscleGroup,
		TimerEnabled:  true,
		TimerSeconds:  DefaultTimerSeconds,
		UnitPrimary:   DefaultUnitPrimary,
		UnitSecondary: DefaultUnitSecondary,
	}
}

// Normalize fills empty units with the defaults.
func (e *Exercise) Normalize() {
	if e.UnitPrimary == "" {
		e.UnitPrimary = DefaultUnitPrimary
	}
	if e.UnitSecondary == "" {
		e.UnitSecondary = DefaultUnitSecondary
	}
	if e.TimerSeconds < 0 {
		e.TimerSeconds = 0
	}
}
