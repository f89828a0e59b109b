package runtime

import (
	"time"

	"github.com/aretw0/ironlog/pkg/domain"
)

// Seed builds a fresh session for tmpl.
//
// last maps exercise ids to their most recent performance; missing ids have
// no history. Within a slot every exercise gets as many sets as the longest
// history in that slot, with a floor of one. Extra sets copy the exercise's
// own last known values.
func Seed(userID string, tmpl *domain.Template, last map[string]*domain.ExecutedExercise, now time.Time) *domain.ActiveSession {
	session := &domain.ActiveSession{
		UserID:        userID,
		TemplateID:    tmpl.ID,
		StartedAt:     now,
		ExecutionData: make(domain.ExecutionData),
		FocusedSlot:   domain.SlotRef(0),
	}

	for i, slot := range tmpl.Slots {
		maxSeries := 1
		for _, id := range slot.ExerciseIDs {
			if h := last[id]; h != nil && len(h.Sets) > maxSeries {
				maxSeries = len(h.Sets)
			}
		}

		for _, id := range slot.ExerciseIDs {
			session.ExecutionData[domain.SlotKey{Slot: i, ExerciseID: id}] = &domain.ExecutedExercise{
				ExerciseID: id,
				Sets:       seedSets(last[id], maxSeries),
			}
		}
	}

	return session
}

func seedSets(history *domain.ExecutedExercise, count int) []domain.ExecutedSet {
	sets := make([]domain.ExecutedSet, 0, count)
	if history != nil {
		for _, s := range history.Sets {
			s.Number = len(sets) + 1
			s.Completed = false
			sets = append(sets, s)
		}
	}
	for len(sets) < count {
		sets = append(sets, nextSet(sets))
	}
	return sets
}

// nextSet builds the set that follows sets. A zero reps value falls back to
// the default, as does an empty list.
func nextSet(sets []domain.ExecutedSet) domain.ExecutedSet {
	next := domain.ExecutedSet{
		Number: len(sets) + 1,
		Weight: domain.DefaultSetWeight,
		Reps:   domain.DefaultSetReps,
	}
	if len(sets) > 0 {
		last := sets[len(sets)-1]
		next.Weight = last.Weight
		if last.Reps != 0 {
			next.Reps = last.Reps
		}
	}
	return next
}
