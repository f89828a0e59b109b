package domain

import "github.com/cockroachdb/errors"

var (
	// ErrTemplateNotFound is returned when a workout template id has no match.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrExerciseNotFound is returned when an exercise id has no match in the catalog.
	ErrExerciseNotFound = errors.New("exercise not found")

	// ErrSessionNotFound is returned by session stores when no snapshot exists for a user.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoActiveSession is returned when a mutation targets a user without a workout in progress.
	ErrNoActiveSession = errors.New("no active session")

	// ErrSessionClosed is returned when a session was finalized while the caller was waiting on it.
	ErrSessionClosed = errors.New("session closed")

	// ErrStorageUnavailable marks any failure of a storage collaborator.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrConfirmationRequired is returned by EndSession when the workout is incomplete
	// and the caller did not confirm.
	ErrConfirmationRequired = errors.New("confirmation required to finish an incomplete session")

	// ErrInvalidTemplate is returned when a template breaks the slot shape rules.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrInvalidField is returned for set fields other than weight and reps.
	ErrInvalidField = errors.New("invalid set field")
)

// Unavailable marks err as ErrStorageUnavailable, keeping the original cause.
// Nil stays nil and already marked errors are returned as is.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return errors.Mark(err, ErrStorageUnavailable)
}

// IsNotFound reports whether err is one of the lookup misses.
func IsNotFound(err error) bool {
	return errors.IsAny(err, ErrTemplateNotFound, ErrExerciseNotFound, ErrSessionNotFound, ErrNoActiveSession)
}
