package loam

// Kinds of program documents.
const (
	KindExercise = "exercise"
	KindTemplate = "template"
)

// DocumentMetadata is the frontmatter of a program document. One struct
// covers both kinds; fields that do not apply to a kind are ignored.
type DocumentMetadata struct {
	ID   string `json:"id" mapstructure:"id"`
	Kind string `json:"kind" mapstructure:"kind"`
	Name string `json:"name" mapstructure:"name"`

	// Exercise fields. Pointers tell "unset" from an explicit zero/false.
	MuscleGroup   string `json:"muscle_group" mapstructure:"muscle_group"`
	TimerEnabled  *bool  `json:"timer_enabled" mapstructure:"timer_enabled"`
	TimerSeconds  *int   `json:"timer_seconds" mapstructure:"timer_seconds"`
	UnitPrimary   string `json:"unit_primary" mapstructure:"unit_primary"`
	UnitSecondary string `json:"unit_secondary" mapstructure:"unit_secondary"`

	// Template fields. Each slot is an exercise id or a list of two ids.
	SequenceOrder int   `json:"sequence_order" mapstructure:"sequence_order"`
	Sporadic      bool  `json:"sporadic" mapstructure:"sporadic"`
	Slots         []any `json:"slots" mapstructure:"slots"`
}
