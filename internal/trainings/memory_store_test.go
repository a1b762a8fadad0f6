package trainings

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/2beens/fittrack/internal/apperr"
)

type memTraining struct {
	Training
	userID int
}

type memSet struct {
	setRow
	trainingID int
}

type memState struct {
	trainings map[int]memTraining
	sets      map[int]memSet
	nextID    int
}

func (s memState) clone() memState {
	c := memState{
		trainings: make(map[int]memTraining, len(s.trainings)),
		sets:      make(map[int]memSet, len(s.sets)),
		nextID:    s.nextID,
	}
	for k, v := range s.trainings {
		c.trainings[k] = v
	}
	for k, v := range s.sets {
		c.sets[k] = v
	}
	return c
}

// memoryStore keeps everything in maps. A failed transaction restores the snapshot
// taken when it began.
type memoryStore struct {
	exercises map[string]int
	state     memState
	// failOn makes the named query return an error, to test rollbacks
	failOn string

	commits   int
	rollbacks int
}

func newMemoryStore(exerciseNames ...string) *memoryStore {
	s := &memoryStore{
		exercises: make(map[string]int),
		state: memState{
			trainings: make(map[int]memTraining),
			sets:      make(map[int]memSet),
			nextID:    1,
		},
	}
	for i, name := range exerciseNames {
		s.exercises[name] = 1000 + i
	}
	return s
}

var errInjected = errors.New("injected failure")

func (s *memoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error {
	snapshot := s.state.clone()
	if err := fn(ctx, &memQueries{store: s}); err != nil {
		s.state = snapshot
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

func (s *memoryStore) trainingCount() int {
	return len(s.state.trainings)
}

func (s *memoryStore) setCount() int {
	return len(s.state.sets)
}

type memQueries struct {
	store *memoryStore
}

func (q *memQueries) fail(name string) error {
	if q.store.failOn == name {
		return errInjected
	}
	return nil
}

func (q *memQueries) id() int {
	id := q.store.state.nextID
	q.store.state.nextID++
	return id
}

func (q *memQueries) InsertTraining(_ context.Context, userID int, name string, date Date) (int, error) {
	if err := q.fail("InsertTraining"); err != nil {
		return 0, err
	}
	id := q.id()
	q.store.state.trainings[id] = memTraining{
		Training: Training{ID: id, Name: name, Date: date},
		userID:   userID,
	}
	return id, nil
}

func (q *memQueries) GetTraining(_ context.Context, trainingID, userID int) (*Training, error) {
	t, ok := q.store.state.trainings[trainingID]
	if !ok || t.userID != userID {
		return nil, apperr.NotFound("There is no training with id: %d.", trainingID)
	}
	training := t.Training
	return &training, nil
}

func (q *memQueries) userTrainings(userID int) []Training {
	var list []Training
	for _, t := range q.store.state.trainings {
		if t.userID == userID {
			list = append(list, t.Training)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (q *memQueries) ListTrainings(_ context.Context, userID int, sortBy, order string, offset, limit int) ([]Training, error) {
	list := q.userTrainings(userID)
	less := func(a, b Training) int {
		switch sortBy {
		case SortByName:
			return strings.Compare(a.Name, b.Name)
		case SortByDate:
			return a.Date.Compare(b.Date.Time)
		}
		return 0
	}
	sort.SliceStable(list, func(i, j int) bool {
		c := less(list[i], list[j])
		if order == OrderDesc {
			c = -c
		}
		if c == 0 {
			return list[i].ID < list[j].ID
		}
		return c < 0
	})

	if offset >= len(list) {
		return nil, nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end], nil
}

func (q *memQueries) SearchTrainings(_ context.Context, userID int, fragment string) ([]Training, error) {
	var found []Training
	for _, t := range q.userTrainings(userID) {
		if strings.Contains(t.Name, fragment) {
			found = append(found, t)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Date.After(found[j].Date.Time)
	})
	return found, nil
}

func (q *memQueries) DeleteTraining(_ context.Context, trainingID, userID int) (int64, error) {
	t, ok := q.store.state.trainings[trainingID]
	if !ok || t.userID != userID {
		return 0, nil
	}
	delete(q.store.state.trainings, trainingID)
	for id, s := range q.store.state.sets {
		if s.trainingID == trainingID {
			delete(q.store.state.sets, id)
		}
	}
	return 1, nil
}

func (q *memQueries) ResolveExercise(_ context.Context, name string) (int, error) {
	id, ok := q.store.exercises[name]
	if !ok {
		return 0, apperr.NotFound("Exercise %s does not exists in database", name)
	}
	return id, nil
}

func (q *memQueries) ExerciseName(_ context.Context, exerciseID int) (string, error) {
	for name, id := range q.store.exercises {
		if id == exerciseID {
			return name, nil
		}
	}
	return "", apperr.NotFound("There is no exercise with id: %d.", exerciseID)
}

func (q *memQueries) ListSets(_ context.Context, trainingID int) ([]setRow, error) {
	var rows []setRow
	for _, s := range q.store.state.sets {
		if s.trainingID == trainingID {
			rows = append(rows, s.setRow)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (q *memQueries) InsertSet(_ context.Context, trainingID, exerciseID, repetitions int, weight float64) (int, error) {
	if err := q.fail("InsertSet"); err != nil {
		return 0, err
	}
	id := q.id()
	q.store.state.sets[id] = memSet{
		setRow: setRow{
			ID:          id,
			ExerciseID:  exerciseID,
			Repetitions: repetitions,
			Weight:      weight,
		},
		trainingID: trainingID,
	}
	return id, nil
}

func (q *memQueries) UpdateSet(_ context.Context, trainingID, setID, repetitions int, weight float64) error {
	if err := q.fail("UpdateSet"); err != nil {
		return err
	}
	s, ok := q.store.state.sets[setID]
	if !ok || s.trainingID != trainingID {
		return apperr.NotFound("Set %d does not belong to this training.", setID)
	}
	s.Repetitions = repetitions
	s.Weight = weight
	q.store.state.sets[setID] = s
	return nil
}

func (q *memQueries) DeleteSet(_ context.Context, trainingID, setID int) error {
	s, ok := q.store.state.sets[setID]
	if ok && s.trainingID == trainingID {
		delete(q.store.state.sets, setID)
	}
	return nil
}
