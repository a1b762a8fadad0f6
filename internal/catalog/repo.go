package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/fittrack/internal/apperr"
	"github.com/2beens/fittrack/internal/db"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"
)

type Repo struct {
	db    db.Querier
	cache *nameCache
}

func NewRepo(q db.Querier) *Repo {
	return NewRepoWithCacheSize(q, defaultCacheSize)
}

func NewRepoWithCacheSize(q db.Querier, cacheSize int) *Repo {
	return &Repo{
		db:    q,
		cache: newNameCache(cacheSize),
	}
}

// ResolveByName returns the id of the exercise with exactly the given name (case-sensitive).
// q is usually the transaction of the calling operation.
func (r *Repo) ResolveByName(ctx context.Context, q db.Querier, name string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.resolve")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise_name", name))

	if id, ok := r.cache.idByName(name); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return id, nil
	}

	var id int
	err = q.QueryRow(ctx, `SELECT id FROM exercise WHERE exercise_name = $1;`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.NotFound("Exercise %s does not exists in database", name)
	}
	if err != nil {
		return 0, db.TranslateError(fmt.Errorf("resolve exercise: %w", err))
	}

	r.cache.put(id, name)
	return id, nil
}

// NameByID is the reverse of ResolveByName.
func (r *Repo) NameByID(ctx context.Context, q db.Querier, id int) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.name")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise_id", id))

	if name, ok := r.cache.nameByID(id); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return name, nil
	}

	var name string
	err = q.QueryRow(ctx, `SELECT exercise_name FROM exercise WHERE id = $1;`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.NotFound("There is no exercise with id: %d.", id)
	}
	if err != nil {
		return "", db.TranslateError(fmt.Errorf("exercise name: %w", err))
	}

	r.cache.put(id, name)
	return name, nil
}

// SearchBySubstring does a case-insensitive match on exercise names.
// limit is clamped to [1, MaxSearchResults].
func (r *Repo) SearchBySubstring(ctx context.Context, fragment string, limit int) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.search")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("fragment", fragment))

	if limit < 1 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, exercise_name, muscle_group
			FROM exercise
			WHERE exercise_name ILIKE '%' || $1 || '%'
			ORDER BY exercise_name
			LIMIT $2;`,
		pkg.EscapeLike(fragment), limit,
	)
	if err != nil {
		return nil, db.TranslateError(fmt.Errorf("query: %w", err))
	}
	defer rows.Close()

	exercises, err := r.rows2exercises(rows)
	if err != nil {
		return nil, db.TranslateError(fmt.Errorf("rows2exercises: %w", err))
	}
	span.SetAttributes(attribute.Int("found", len(exercises)))
	return exercises, nil
}

func (r *Repo) All(ctx context.Context) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.all")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `SELECT id, exercise_name, muscle_group FROM exercise ORDER BY exercise_name;`)
	if err != nil {
		return nil, db.TranslateError(fmt.Errorf("query: %w", err))
	}
	defer rows.Close()

	exercises, err := r.rows2exercises(rows)
	if err != nil {
		return nil, db.TranslateError(fmt.Errorf("rows2exercises: %w", err))
	}
	return exercises, nil
}

func (r *Repo) rows2exercises(rows pgx.Rows) ([]Exercise, error) {
	exercises := make([]Exercise, 0)
	for rows.Next() {
		var e Exercise
		if err := rows.Scan(&e.ID, &e.ExerciseName, &e.MuscleGroup); err != nil {
			return nil, err
		}
		r.cache.put(e.ID, e.ExerciseName)
		exercises = append(exercises, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return exercises, nil
}
