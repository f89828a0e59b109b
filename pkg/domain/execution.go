package domain

import "time"

// ExecutionStatus is the outcome of a finished workout.
type ExecutionStatus string

const (
	ExecutionCompleted  ExecutionStatus = "completed"
	ExecutionIncomplete ExecutionStatus = "incomplete"
)

// ExecutionRecord is the immutable history entry written when a session ends.
type ExecutionRecord struct {
	ID                string             `json:"id"`
	UserID            string             `json:"user_id"`
	TemplateID        string             `json:"template_id"`
	FinishedAt        time.Time          `json:"finished_at"`
	ExecutedExercises []ExecutedExercise `json:"executed_exercises"`
	Status            ExecutionStatus    `json:"status"`
}

// Volume is the sum of weight times reps over completed sets.
func (r *ExecutionRecord) Volume() float64 {
	var vol float64
	for _, ex := range r.ExecutedExercises {
		for _, s := range ex.Sets {
			if s.Completed {
				vol += s.Weight * s.Reps
			}
		}
	}
	return vol
}

// Find returns the first executed exercise with the given id, or nil.
func (r *ExecutionRecord) Find(exerciseID string) *ExecutedExercise {
	for i := range r.ExecutedExercises {
		if r.ExecutedExercises[i].ExerciseID == exerciseID {
			return &r.ExecutedExercises[i]
		}
	}
	return nil
}
