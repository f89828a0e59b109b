package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/ironlog/pkg/adapters/memory"
	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, memory.NewStore())
}

func TestMemoryCatalog_Contract(t *testing.T) {
	ports.RunExerciseCatalogContract(t, memory.NewCatalog())
}

func TestMemoryTemplates_Contract(t *testing.T) {
	ports.RunTemplateRepositoryContract(t, memory.NewTemplates())
}

func TestMemoryArchive_Contract(t *testing.T) {
	ports.RunExecutionArchiveContract(t, memory.NewArchive())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	session := &domain.ActiveSession{
		UserID: "u1",
		ExecutionData: domain.ExecutionData{
			{Slot: 0, ExerciseID: "a"}: {ExerciseID: "a", Sets: []domain.ExecutedSet{{Number: 1}}},
		},
	}
	require.NoError(t, store.Save(ctx, "u1", session))

	session.Exercise(0, "a").Sets[0].Weight = 100

	loaded, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, loaded.Exercise(0, "a").Sets[0].Weight)

	loaded.Exercise(0, "a").Sets[0].Completed = true
	again, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, again.Exercise(0, "a").Sets[0].Completed)
}

func TestMemoryTemplates_RejectsInvalid(t *testing.T) {
	repo := memory.NewTemplates()
	err := repo.SaveTemplate(context.Background(), &domain.Template{
		ID:    "bad",
		Slots: []domain.Slot{{ExerciseIDs: []string{"a", "b", "c"}}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)
}
