package profile

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/fittrack/internal/db"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
)

type Repo struct {
	gateway *db.Gateway
}

func NewRepo(gateway *db.Gateway) *Repo {
	return &Repo{
		gateway: gateway,
	}
}

// GetOrCreate returns the profile of the user, creating an empty one on first access.
// Concurrent first fetches both end up reading the same row.
func (r *Repo) GetOrCreate(ctx context.Context, userID int) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user_id", userID))

	p := &Profile{UserID: userID}
	err = r.gateway.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO user_profile (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING;`,
			userID,
		); err != nil {
			return fmt.Errorf("insert empty profile: %w", err)
		}

		if err := tx.QueryRow(
			ctx,
			`SELECT age, weight, height FROM user_profile WHERE user_id = $1;`,
			userID,
		).Scan(&p.Age, &p.Weight, &p.Height); err != nil {
			return fmt.Errorf("select profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Upsert replaces all metrics of the user's profile, creating the row if missing.
func (r *Repo) Upsert(ctx context.Context, userID int, params UpdateParams) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user_id", userID))

	return r.gateway.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(
			ctx,
			`
				INSERT INTO user_profile (user_id, age, weight, height)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (user_id) DO UPDATE
				SET age = EXCLUDED.age, weight = EXCLUDED.weight, height = EXCLUDED.height;`,
			userID, params.Age, params.Weight, params.Height,
		); err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}
		return nil
	})
}
