package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/2beens/fittrack/internal/apperr"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"
)

// Querier is implemented by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Gateway hands out transactions scoped to a single operation.
type Gateway struct {
	pool    txBeginner
	metrics *metrics.Manager
}

func NewGateway(pool *pgxpool.Pool, metricsManager *metrics.Manager) *Gateway {
	return &Gateway{
		pool:    pool,
		metrics: metricsManager,
	}
}

// WithTx runs fn inside a transaction. The transaction is committed when fn returns nil,
// and rolled back when fn returns an error or panics. The returned error is always
// translated into an *apperr.Error.
func (g *Gateway) WithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "db.gateway.tx")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := g.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, err, "begin transaction")
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// fresh context, the request one might be done already
		rollbackErr := tx.Rollback(context.WithoutCancel(ctx))
		if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			log.Errorf("db gateway: rollback failed: %s", rollbackErr)
			err = multierr.Append(err, fmt.Errorf("rollback: %w", rollbackErr))
		}
		g.incRollbacks()
	}()

	if err := fn(ctx, tx); err != nil {
		return TranslateError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return TranslateError(fmt.Errorf("commit: %w", err))
	}
	committed = true
	g.incCommits()

	return nil
}

func (g *Gateway) incCommits() {
	if g.metrics != nil {
		g.metrics.CounterTxCommits.Inc()
	}
}

func (g *Gateway) incRollbacks() {
	if g.metrics != nil {
		g.metrics.CounterTxRollbacks.Inc()
	}
}

// TranslateError turns storage errors into the application error taxonomy.
// Errors that already carry a kind are returned as they are.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	if pgErr, ok := pkg.PgError(err); ok && pkg.IsIntegrityViolationError(err) {
		return apperr.Wrap(apperr.KindConstraintViolation, err, "%s", constraintMessage(pgErr))
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindStorageUnavailable, err, "request cancelled")
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.SafeToRetry(err) {
		return apperr.Wrap(apperr.KindStorageUnavailable, err, "database unavailable")
	}

	return apperr.Wrap(apperr.KindStorageUnavailable, err, "database operation failed")
}

func constraintMessage(pgErr *pgconn.PgError) string {
	switch pgErr.Code {
	case pkg.PgCodeUniqueViolation:
		return fmt.Sprintf("Value already exists (%s).", pgErr.ConstraintName)
	case pkg.PgCodeForeignKeyViolation:
		return fmt.Sprintf("Referenced record does not exist (%s).", pgErr.ConstraintName)
	case pkg.PgCodeCheckViolation:
		return fmt.Sprintf("Value out of allowed range (%s).", pgErr.ConstraintName)
	case pkg.PgCodeNotNullViolation:
		return fmt.Sprintf("Missing required value (%s).", pgErr.ColumnName)
	default:
		return pgErr.Message
	}
}
