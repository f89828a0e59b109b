package ports

import (
	"context"

	"github.com/aretw0/ironlog/pkg/domain"
)

// ExerciseCatalog stores a user's exercises.
type ExerciseCatalog interface {
	// GetExercise returns domain.ErrExerciseNotFound if the id is unknown.
	GetExercise(ctx context.Context, userID, exerciseID string) (*domain.Exercise, error)

	// ListExercises returns the user's exercises ordered by name.
	ListExercises(ctx context.Context, userID string) ([]domain.Exercise, error)

	// SaveExercise creates or replaces an exercise.
	SaveExercise(ctx context.Context, exercise *domain.Exercise) error

	// DeleteExercise removes an exercise. Deleting a missing exercise is not an error.
	DeleteExercise(ctx context.Context, userID, exerciseID string) error
}

// TemplateRepository stores a user's workout templates.
type TemplateRepository interface {
	// GetTemplate returns domain.ErrTemplateNotFound if the id is unknown.
	GetTemplate(ctx context.Context, userID, templateID string) (*domain.Template, error)

	// ListTemplates returns the user's templates ordered by sequence order.
	ListTemplates(ctx context.Context, userID string) ([]domain.Template, error)

	// SaveTemplate creates or replaces a template.
	SaveTemplate(ctx context.Context, template *domain.Template) error

	// DeleteTemplate removes a template. Deleting a missing template is not an error.
	DeleteTemplate(ctx context.Context, userID, templateID string) error
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used to refresh clients when a program directory is edited.
type Watchable interface {
	// Watch returns a channel that receives the id of each changed document.
	Watch(ctx context.Context) (<-chan string, error)
}
