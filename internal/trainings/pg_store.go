package trainings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/2beens/fittrack/internal/apperr"
	"github.com/2beens/fittrack/internal/db"
	"github.com/2beens/fittrack/pkg"
)

type exerciseCatalog interface {
	ResolveByName(ctx context.Context, q db.Querier, name string) (int, error)
	NameByID(ctx context.Context, q db.Querier, id int) (string, error)
}

var sortColumns = map[string]string{
	SortByName: `name COLLATE "C"`,
	SortByDate: "date",
}

var orderDirections = map[string]string{
	OrderAsc:  "ASC",
	OrderDesc: "DESC",
}

type PgStore struct {
	gateway *db.Gateway
	catalog exerciseCatalog
}

func NewPgStore(gateway *db.Gateway, catalog exerciseCatalog) *PgStore {
	return &PgStore{
		gateway: gateway,
		catalog: catalog,
	}
}

func (s *PgStore) WithTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error {
	return s.gateway.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &pgQueries{tx: tx, catalog: s.catalog})
	})
}

type pgQueries struct {
	tx      pgx.Tx
	catalog exerciseCatalog
}

func (q *pgQueries) InsertTraining(ctx context.Context, userID int, name string, date Date) (int, error) {
	var id int
	if err := q.tx.QueryRow(
		ctx,
		`INSERT INTO trainings (name, user_id, date) VALUES ($1, $2, $3) RETURNING id;`,
		name, userID, date.Time,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert training: %w", err)
	}
	return id, nil
}

func (q *pgQueries) GetTraining(ctx context.Context, trainingID, userID int) (*Training, error) {
	var (
		t    Training
		date time.Time
	)
	err := q.tx.QueryRow(
		ctx,
		`SELECT id, name, date FROM trainings WHERE id = $1 AND user_id = $2;`,
		trainingID, userID,
	).Scan(&t.ID, &t.Name, &date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("There is no training with id: %d.", trainingID)
	}
	if err != nil {
		return nil, fmt.Errorf("get training: %w", err)
	}
	t.Date = Date{Time: date}
	return &t, nil
}

func (q *pgQueries) ListTrainings(ctx context.Context, userID int, sortBy, order string, offset, limit int) ([]Training, error) {
	column, ok := sortColumns[sortBy]
	if !ok {
		return nil, apperr.InvalidArgument("Cannot sort by: %s.", sortBy)
	}
	direction, ok := orderDirections[order]
	if !ok {
		return nil, apperr.InvalidArgument("Cannot order by: %s.", order)
	}

	rows, err := q.tx.Query(
		ctx,
		fmt.Sprintf(`
			SELECT id, name, date
			FROM trainings
			WHERE user_id = $1
			ORDER BY %s %s, id ASC
			LIMIT $2 OFFSET $3;`, column, direction),
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list trainings: %w", err)
	}
	defer rows.Close()

	return rows2trainings(rows)
}

func (q *pgQueries) SearchTrainings(ctx context.Context, userID int, fragment string) ([]Training, error) {
	rows, err := q.tx.Query(
		ctx,
		`
			SELECT id, name, date
			FROM trainings
			WHERE user_id = $1 AND name LIKE '%' || $2 || '%'
			ORDER BY date DESC, id ASC;`,
		userID, pkg.EscapeLike(fragment),
	)
	if err != nil {
		return nil, fmt.Errorf("search trainings: %w", err)
	}
	defer rows.Close()

	return rows2trainings(rows)
}

func (q *pgQueries) DeleteTraining(ctx context.Context, trainingID, userID int) (int64, error) {
	tag, err := q.tx.Exec(ctx, `DELETE FROM trainings WHERE id = $1 AND user_id = $2;`, trainingID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete training: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *pgQueries) ResolveExercise(ctx context.Context, name string) (int, error) {
	return q.catalog.ResolveByName(ctx, q.tx, name)
}

func (q *pgQueries) ExerciseName(ctx context.Context, exerciseID int) (string, error) {
	return q.catalog.NameByID(ctx, q.tx, exerciseID)
}

func (q *pgQueries) ListSets(ctx context.Context, trainingID int) ([]setRow, error) {
	rows, err := q.tx.Query(
		ctx,
		`SELECT id, exercise_id, repetitions, weight FROM sets WHERE training_id = $1 ORDER BY id;`,
		trainingID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	defer rows.Close()

	var sets []setRow
	for rows.Next() {
		var s setRow
		if err := rows.Scan(&s.ID, &s.ExerciseID, &s.Repetitions, &s.Weight); err != nil {
			return nil, fmt.Errorf("scan set: %w", err)
		}
		sets = append(sets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	return sets, nil
}

func (q *pgQueries) InsertSet(ctx context.Context, trainingID, exerciseID, repetitions int, weight float64) (int, error) {
	var id int
	if err := q.tx.QueryRow(
		ctx,
		`
			INSERT INTO sets (training_id, exercise_id, repetitions, weight)
			VALUES ($1, $2, $3, $4)
			RETURNING id;`,
		trainingID, exerciseID, repetitions, weight,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert set: %w", err)
	}
	return id, nil
}

func (q *pgQueries) UpdateSet(ctx context.Context, trainingID, setID, repetitions int, weight float64) error {
	tag, err := q.tx.Exec(
		ctx,
		`UPDATE sets SET repetitions = $1, weight = $2 WHERE id = $3 AND training_id = $4;`,
		repetitions, weight, setID, trainingID,
	)
	if err != nil {
		return fmt.Errorf("update set %d: %w", setID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Set %d does not belong to this training.", setID)
	}
	return nil
}

func (q *pgQueries) DeleteSet(ctx context.Context, trainingID, setID int) error {
	if _, err := q.tx.Exec(
		ctx,
		`DELETE FROM sets WHERE id = $1 AND training_id = $2;`,
		setID, trainingID,
	); err != nil {
		return fmt.Errorf("delete set %d: %w", setID, err)
	}
	return nil
}

func rows2trainings(rows pgx.Rows) ([]Training, error) {
	trainings := make([]Training, 0)
	for rows.Next() {
		var (
			t    Training
			date time.Time
		)
		if err := rows.Scan(&t.ID, &t.Name, &date); err != nil {
			return nil, fmt.Errorf("scan training: %w", err)
		}
		t.Date = Date{Time: date}
		trainings = append(trainings, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read trainings: %w", err)
	}
	return trainings, nil
}
