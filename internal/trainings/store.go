package trainings

import (
	"context"
)

// Queries are the statements the service runs inside one transaction.
// Lookups of a missing training or exercise return an apperr KindNotFound error.
type Queries interface {
	InsertTraining(ctx context.Context, userID int, name string, date Date) (int, error)
	GetTraining(ctx context.Context, trainingID, userID int) (*Training, error)
	ListTrainings(ctx context.Context, userID int, sortBy, order string, offset, limit int) ([]Training, error)
	SearchTrainings(ctx context.Context, userID int, fragment string) ([]Training, error)
	DeleteTraining(ctx context.Context, trainingID, userID int) (int64, error)

	ResolveExercise(ctx context.Context, name string) (int, error)
	ExerciseName(ctx context.Context, exerciseID int) (string, error)

	ListSets(ctx context.Context, trainingID int) ([]setRow, error)
	InsertSet(ctx context.Context, trainingID, exerciseID, repetitions int, weight float64) (int, error)
	UpdateSet(ctx context.Context, trainingID, setID, repetitions int, weight float64) error
	DeleteSet(ctx context.Context, trainingID, setID int) error
}

// store runs fn in a transaction: committed when fn returns nil, rolled back otherwise.
type store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error
}
