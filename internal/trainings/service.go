package trainings

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/fittrack/internal/apperr"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/internal/validation"
)

type Service struct {
	store   store
	metrics *metrics.Manager
}

func NewService(store store, metricsManager *metrics.Manager) *Service {
	return &Service{
		store:   store,
		metrics: metricsManager,
	}
}

// Create stores the training and all its sets atomically. An unknown exercise
// name fails the whole call and leaves nothing behind.
func (s *Service) Create(ctx context.Context, params CreateParams) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.trainings.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user_id", params.UserID), attribute.Int("sets", len(params.Sets)))

	if err := validation.Struct(params); err != nil {
		return 0, err
	}

	var trainingID int
	err = s.store.WithTx(ctx, func(ctx context.Context, q Queries) error {
		id, err := q.InsertTraining(ctx, params.UserID, params.Name, params.Date)
		if err != nil {
			return err
		}
		for _, set := range params.Sets {
			exerciseID, err := q.ResolveExercise(ctx, set.ExerciseName)
			if apperr.Is(err, apperr.KindNotFound) {
				return apperr.UnknownExercise(set.ExerciseName)
			}
			if err != nil {
				return err
			}
			if _, err := q.InsertSet(ctx, id, exerciseID, set.Repetitions, set.Weight); err != nil {
				return err
			}
		}
		trainingID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.CounterTrainingsCreated.Inc()
		s.metrics.CounterSetsReconciled.WithLabelValues("insert").Add(float64(len(params.Sets)))
	}
	log.Debugf("training %d created for user %d with %d sets", trainingID, params.UserID, len(params.Sets))

	return trainingID, nil
}

// FetchSorted returns one page of the user's trainings. sort_by and order are
// case-insensitive and checked before anything is queried.
func (s *Service) FetchSorted(ctx context.Context, params FetchSortedParams) (_ []Training, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.trainings.sorted")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sortBy := strings.ToLower(params.SortBy)
	order := strings.ToLower(params.Order)
	if sortBy != SortByName && sortBy != SortByDate {
		return nil, apperr.InvalidArgument("Cannot sort by: %s.", sortBy)
	}
	if order != OrderAsc && order != OrderDesc {
		return nil, apperr.InvalidArgument("Cannot order by: %s.", order)
	}
	if params.Offset < 0 {
		return nil, apperr.InvalidArgument("Offset cannot be negative: %d.", params.Offset)
	}
	span.SetAttributes(
		attribute.String("sort_by", sortBy),
		attribute.String("order", order),
		attribute.Int("offset", params.Offset),
	)

	var trainings []Training
	err = s.store.WithTx(ctx, func(ctx context.Context, q Queries) error {
		trainings, err = q.ListTrainings(ctx, params.UserID, sortBy, order, params.Offset, PageSize)
		return err
	})
	if err != nil {
		return nil, err
	}

	return nonNil(trainings), nil
}

// Search matches the fragment anywhere in the training name, case-sensitive.
func (s *Service) Search(ctx context.Context, userID int, fragment string) (_ []Training, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.trainings.search")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("fragment", fragment))

	var trainings []Training
	err = s.store.WithTx(ctx, func(ctx context.Context, q Queries) error {
		trainings, err = q.SearchTrainings(ctx, userID, fragment)
		return err
	})
	if err != nil {
		return nil, err
	}

	return nonNil(trainings), nil
}

func (s *Service) FetchDetails(ctx context.Context, trainingID, userID int) (_ *Details, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.trainings.details")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("training_id", trainingID))

	var details *Details
	err = s.store.WithTx(ctx, func(ctx context.Context, q Queries) error {
		training, err := q.GetTraining(ctx, trainingID, userID)
		if err != nil {
			return err
		}

		rows, err := q.ListSets(ctx, trainingID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return apperr.NoSets("Training %d has no sets.", trainingID)
		}

		sets := make([]SetItem, 0, len(rows))
		for _, row := range rows {
			name, err := q.ExerciseName(ctx, row.ExerciseID)
			if apperr.Is(err, apperr.KindNotFound) {
				return apperr.DataIntegrity("Set %d references missing exercise %d.", row.ID, row.ExerciseID)
			}
			if err != nil {
				return err
			}
			setID := row.ID
			sets = append(sets, SetItem{
				SetID:        &setID,
				ExerciseName: name,
				Repetitions:  row.Repetitions,
				Weight:       row.Weight,
			})
		}

		details = &Details{
			Name: training.Name,
			Date: training.Date,
			Sets: sets,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return details, nil
}

// Delete removes the training only when it belongs to the user. Deleting someone
// else's (or a missing) training affects nothing and is not an error.
func (s *Service) Delete(ctx context.Context, trainingID, userID int) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.trainings.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("training_id", trainingID))

	var deleted int64
	err = s.store.WithTx(ctx, func(ctx context.Context, q Queries) error {
		deleted, err = q.DeleteTraining(ctx, trainingID, userID)
		return err
	})
	if err != nil {
		return 0, err
	}

	log.Debugf("delete training %d of user %d: %d rows", trainingID, userID, deleted)
	return deleted, nil
}

// Update makes the stored sets of the training equal to the incoming list. Items
// with a set id update reps and weight of that set, items without one are inserted,
// and stored sets missing from the list are deleted. All of it or nothing is applied.
func (s *Service) Update(ctx context.Context, trainingID, userID int, incoming []SetItem) (_ Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.trainings.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("training_id", trainingID), attribute.Int("incoming", len(incoming)))

	if err := validation.Struct(updateRequest{Sets: incoming}); err != nil {
		return Plan{}, err
	}

	var plan Plan
	err = s.store.WithTx(ctx, func(ctx context.Context, q Queries) error {
		if _, err := q.GetTraining(ctx, trainingID, userID); err != nil {
			return err
		}

		rows, err := q.ListSets(ctx, trainingID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return apperr.NoSets("Error with processing training with id: %d.", trainingID)
		}

		existingIDs := make([]int, 0, len(rows))
		for _, row := range rows {
			existingIDs = append(existingIDs, row.ID)
		}

		plan, err = Diff(existingIDs, incoming)
		if err != nil {
			return err
		}

		for _, setID := range plan.Deletes {
			if err := q.DeleteSet(ctx, trainingID, setID); err != nil {
				return err
			}
		}
		for _, item := range plan.Inserts {
			exerciseID, err := q.ResolveExercise(ctx, item.ExerciseName)
			if apperr.Is(err, apperr.KindNotFound) {
				return apperr.NotFound("Error with finding exercise %s", item.ExerciseName)
			}
			if err != nil {
				return err
			}
			if _, err := q.InsertSet(ctx, trainingID, exerciseID, item.Repetitions, item.Weight); err != nil {
				return err
			}
		}
		for _, item := range plan.Updates {
			if err := q.UpdateSet(ctx, trainingID, *item.SetID, item.Repetitions, item.Weight); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Plan{}, err
	}

	if s.metrics != nil {
		s.metrics.CounterSetsReconciled.WithLabelValues("delete").Add(float64(len(plan.Deletes)))
		s.metrics.CounterSetsReconciled.WithLabelValues("insert").Add(float64(len(plan.Inserts)))
		s.metrics.CounterSetsReconciled.WithLabelValues("update").Add(float64(len(plan.Updates)))
	}
	log.Debugf(
		"training %d reconciled: %d deleted, %d inserted, %d updated",
		trainingID, len(plan.Deletes), len(plan.Inserts), len(plan.Updates),
	)

	return plan, nil
}

type updateRequest struct {
	Sets []SetItem `json:"sets" validate:"dive"`
}

func nonNil(trainings []Training) []Training {
	if trainings == nil {
		return []Training{}
	}
	return trainings
}
