package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSuffix() string {
	return time.Now().Format("20060102150405.000000000")
}

func contractSession(userID string) *domain.ActiveSession {
	return &domain.ActiveSession{
		UserID:     userID,
		TemplateID: "push-day",
		StartedAt:  time.Now().UTC().Truncate(time.Second),
		ExecutionData: domain.ExecutionData{
			{Slot: 0, ExerciseID: "bench"}: {
				ExerciseID: "bench",
				Sets: []domain.ExecutedSet{
					{Number: 1, Weight: 60, Reps: 10, Completed: true},
					{Number: 2, Weight: 62.5, Reps: 8},
				},
			},
			{Slot: 1, ExerciseID: "fly"}: {ExerciseID: "fly", Sets: []domain.ExecutedSet{{Number: 1, Reps: 12}}},
			{Slot: 1, ExerciseID: "dip"}: {ExerciseID: "dip", Sets: []domain.ExecutedSet{{Number: 1, Reps: 10}}},
		},
		FocusedSlot: domain.SlotRef(1),
	}
}

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	userID := "contract-user-" + contractSuffix()

	t.Run("Save and Load", func(t *testing.T) {
		session := contractSession(userID)

		err := store.Save(ctx, userID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.UserID, loaded.UserID)
		assert.Equal(t, session.TemplateID, loaded.TemplateID)
		assert.True(t, session.StartedAt.Equal(loaded.StartedAt), "StartedAt should survive persistence")
		require.NotNil(t, loaded.FocusedSlot)
		assert.Equal(t, 1, *loaded.FocusedSlot)
		require.Len(t, loaded.ExecutionData, 3)
		bench := loaded.Exercise(0, "bench")
		require.NotNil(t, bench)
		assert.Equal(t, session.Exercise(0, "bench").Sets, bench.Sets)
		assert.NotNil(t, loaded.Exercise(1, "dip"))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		session := contractSession(userID)
		session.TemplateID = "pull-day"
		session.FocusedSlot = nil
		require.NoError(t, store.Save(ctx, userID, session))

		loaded, err := store.Load(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "pull-day", loaded.TemplateID)
		assert.Nil(t, loaded.FocusedSlot)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+userID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, userID, contractSession(userID))
		require.NoError(t, err)

		err = store.Delete(ctx, userID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, userID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, userID), "Deleting twice should be a no-op")
	})

	t.Run("List", func(t *testing.T) {
		id1 := userID + "-1"
		id2 := userID + "-2"
		_ = store.Save(ctx, id1, contractSession(id1))
		_ = store.Save(ctx, id2, contractSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		users, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, users, id1)
		assert.Contains(t, users, id2)
	})
}

// RunExerciseCatalogContract verifies an ExerciseCatalog implementation.
func RunExerciseCatalogContract(t *testing.T, catalog ExerciseCatalog) {
	ctx := context.Background()
	userID := "catalog-user-" + contractSuffix()

	squat := domain.NewExercise(userID, "squat", "Squat", "legs")
	bench := domain.NewExercise(userID, "bench", "Bench Press", "chest")
	bench.TimerSeconds = 90
	bench.Notes = "pause on chest"
	run := domain.NewExercise(userID, "run", "Running", "cardio")
	run.TimerEnabled = false
	run.UnitPrimary, run.UnitSecondary = "km", "min"

	t.Run("Save and Get", func(t *testing.T) {
		for _, ex := range []*domain.Exercise{squat, bench, run} {
			require.NoError(t, catalog.SaveExercise(ctx, ex))
		}

		got, err := catalog.GetExercise(ctx, userID, "bench")
		require.NoError(t, err)
		assert.Equal(t, *bench, *got)

		got, err = catalog.GetExercise(ctx, userID, "run")
		require.NoError(t, err)
		assert.False(t, got.TimerEnabled)
		assert.Equal(t, "km", got.UnitPrimary)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := catalog.GetExercise(ctx, userID, "missing")
		assert.ErrorIs(t, err, domain.ErrExerciseNotFound)

		_, err = catalog.GetExercise(ctx, "other-"+userID, "bench")
		assert.ErrorIs(t, err, domain.ErrExerciseNotFound, "exercises are scoped by user")
	})

	t.Run("List Ordered By Name", func(t *testing.T) {
		list, err := catalog.ListExercises(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "Bench Press", list[0].Name)
		assert.Equal(t, "Running", list[1].Name)
		assert.Equal(t, "Squat", list[2].Name)
	})

	t.Run("Update", func(t *testing.T) {
		updated := *squat
		updated.TimerSeconds = 180
		require.NoError(t, catalog.SaveExercise(ctx, &updated))

		got, err := catalog.GetExercise(ctx, userID, "squat")
		require.NoError(t, err)
		assert.Equal(t, 180, got.TimerSeconds)

		list, err := catalog.ListExercises(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, list, 3, "update must not duplicate")
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, catalog.DeleteExercise(ctx, userID, "run"))
		_, err := catalog.GetExercise(ctx, userID, "run")
		assert.ErrorIs(t, err, domain.ErrExerciseNotFound)
		assert.NoError(t, catalog.DeleteExercise(ctx, userID, "run"))
	})
}

// RunTemplateRepositoryContract verifies a TemplateRepository implementation.
func RunTemplateRepositoryContract(t *testing.T, repo TemplateRepository) {
	ctx := context.Background()
	userID := "template-user-" + contractSuffix()

	legs := &domain.Template{ID: "legs", UserID: userID, Name: "Legs", SequenceOrder: 2,
		Slots: []domain.Slot{domain.Single("squat"), domain.Combined("curl", "extension")}}
	push := &domain.Template{ID: "push", UserID: userID, Name: "Push", SequenceOrder: 1,
		Slots: []domain.Slot{domain.Single("bench")}}
	mobility := &domain.Template{ID: "mobility", UserID: userID, Name: "Mobility", SequenceOrder: 3, Sporadic: true}

	t.Run("Save and Get", func(t *testing.T) {
		for _, tmpl := range []*domain.Template{legs, push, mobility} {
			require.NoError(t, repo.SaveTemplate(ctx, tmpl))
		}

		got, err := repo.GetTemplate(ctx, userID, "legs")
		require.NoError(t, err)
		assert.Equal(t, "Legs", got.Name)
		assert.Equal(t, 2, got.SequenceOrder)
		require.Len(t, got.Slots, 2)
		assert.Equal(t, []string{"squat"}, got.Slots[0].ExerciseIDs)
		assert.Equal(t, []string{"curl", "extension"}, got.Slots[1].ExerciseIDs)

		got, err = repo.GetTemplate(ctx, userID, "mobility")
		require.NoError(t, err)
		assert.True(t, got.Sporadic)
		assert.Empty(t, got.Slots)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := repo.GetTemplate(ctx, userID, "missing")
		assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	})

	t.Run("List Ordered By Sequence", func(t *testing.T) {
		list, err := repo.ListTemplates(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "push", list[0].ID)
		assert.Equal(t, "legs", list[1].ID)
		assert.Equal(t, "mobility", list[2].ID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteTemplate(ctx, userID, "mobility"))
		_, err := repo.GetTemplate(ctx, userID, "mobility")
		assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
		assert.NoError(t, repo.DeleteTemplate(ctx, userID, "mobility"))
	})
}

// RunExecutionArchiveContract verifies an ExecutionArchive implementation.
func RunExecutionArchiveContract(t *testing.T, archive ExecutionArchive) {
	ctx := context.Background()
	userID := "archive-user-" + contractSuffix()
	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	record := func(id string, offset time.Duration, status domain.ExecutionStatus) *domain.ExecutionRecord {
		return &domain.ExecutionRecord{
			ID:         id,
			UserID:     userID,
			TemplateID: "push",
			FinishedAt: base.Add(offset),
			Status:     status,
			ExecutedExercises: []domain.ExecutedExercise{{
				ExerciseID: "bench",
				Completed:  status == domain.ExecutionCompleted,
				Sets:       []domain.ExecutedSet{{Number: 1, Weight: 80, Reps: 5, Completed: true}},
			}},
		}
	}

	t.Run("Append and List Newest First", func(t *testing.T) {
		require.NoError(t, archive.AppendExecution(ctx, record("r-middle", 24*time.Hour, domain.ExecutionIncomplete)))
		require.NoError(t, archive.AppendExecution(ctx, record("r-old", 0, domain.ExecutionCompleted)))
		require.NoError(t, archive.AppendExecution(ctx, record("r-new", 48*time.Hour, domain.ExecutionCompleted)))

		list, err := archive.ListExecutions(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "r-new", list[0].ID)
		assert.Equal(t, "r-middle", list[1].ID)
		assert.Equal(t, "r-old", list[2].ID)

		assert.Equal(t, domain.ExecutionIncomplete, list[1].Status)
		assert.True(t, base.Add(24*time.Hour).Equal(list[1].FinishedAt))
		require.Len(t, list[0].ExecutedExercises, 1)
		assert.Equal(t, 80.0, list[0].ExecutedExercises[0].Sets[0].Weight)
	})

	t.Run("List Other User", func(t *testing.T) {
		list, err := archive.ListExecutions(ctx, "other-"+userID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Last Completed Pointer", func(t *testing.T) {
		ptr, err := archive.LastCompleted(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "", ptr)

		require.NoError(t, archive.SetLastCompleted(ctx, userID, "push"))
		require.NoError(t, archive.SetLastCompleted(ctx, userID, "legs"))

		ptr, err = archive.LastCompleted(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "legs", ptr)
	})
}
