package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chat-store/internal/logger"
	"chat-store/internal/observability"
)

var tracer = otel.Tracer("chat-store/repositories")

// Clock supplies timestamps for rows written by the store.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// store holds what every repository needs: the pool, a scoped logger and a clock.
type store struct {
	db    *sqlx.DB
	log   *logger.Logger
	clock Clock
}

func newStore(db *sqlx.DB, log *logger.Logger, clock Clock, repo string) store {
	if log == nil {
		log = logger.Nop()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return store{db: db, log: log.With("repo", repo), clock: clock}
}

func (s *store) now() time.Time {
	return s.clock.Now().UTC()
}

// run wraps a store operation with a span and operation metrics.
func (s *store) run(ctx context.Context, op string, fn func(ctx context.Context) error) (err error) {
	ctx, span := tracer.Start(ctx, "store."+op, trace.WithAttributes(
		attribute.String("db.system", s.db.DriverName()),
		attribute.String("store.operation", op),
	))
	start := time.Now()
	defer func() {
		observability.ObserveStoreOperation(op, Outcome(err), time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	return fn(ctx)
}

// withTx runs fn inside one transaction. Any error rolls back every write fn made.
func (s *store) withTx(ctx context.Context, op string, opts *sql.TxOptions, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	return s.run(ctx, op, func(ctx context.Context) (err error) {
		tx, err := s.db.BeginTxx(ctx, opts)
		if err != nil {
			return classify(op+": begin", err)
		}
		defer func() {
			if err == nil {
				return
			}
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Error("rollback failed", "op", op, "error", rbErr)
			}
			var dbErr *DatabaseError
			if errors.As(err, &dbErr) || errors.Is(err, ErrConnection) {
				s.log.Warn("transaction rolled back", "op", op, "error", err)
			} else {
				s.log.Debug("transaction rolled back", "op", op, "error", err)
			}
		}()

		if err = fn(ctx, tx); err != nil {
			return err
		}
		if err = tx.Commit(); err != nil {
			return classify(op+": commit", err)
		}
		return nil
	})
}

func newID() string {
	return uuid.NewString()
}

func get(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
}

func selectRows(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

func exec(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, q.Rebind(query), args...)
}

// execIn expands slice arguments of an IN clause before running the statement.
func execIn(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (int64, error) {
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return 0, err
	}
	res, err := exec(ctx, q, expanded, expandedArgs...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func selectIn(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return selectRows(ctx, q, dest, expanded, expandedArgs...)
}

// count runs a COUNT(*) query.
func count(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (int, error) {
	var n int
	err := get(ctx, q, &n, query, args...)
	return n, err
}

// lookup maps sql.ErrNoRows to notFound and classifies everything else.
func lookup(op string, err error, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return classify(op, err)
}
