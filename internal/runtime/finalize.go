package runtime

import (
	"time"

	"github.com/aretw0/ironlog/pkg/domain"
)

// Outcome reports whether a session would end completed or incomplete.
// A session without exercises counts as completed.
func Outcome(s *domain.ActiveSession) domain.ExecutionStatus {
	if s.AllCompleted() {
		return domain.ExecutionCompleted
	}
	return domain.ExecutionIncomplete
}

// Finalize builds the execution record of s. Exercises are listed in slot order.
func Finalize(s *domain.ActiveSession, id string, finishedAt time.Time) *domain.ExecutionRecord {
	record := &domain.ExecutionRecord{
		ID:                id,
		UserID:            s.UserID,
		TemplateID:        s.TemplateID,
		FinishedAt:        finishedAt,
		ExecutedExercises: make([]domain.ExecutedExercise, 0, len(s.ExecutionData)),
		Status:            Outcome(s),
	}
	for _, k := range s.ExecutionData.Keys() {
		record.ExecutedExercises = append(record.ExecutedExercises, *s.ExecutionData[k].Clone())
	}
	return record
}
