package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sethvargo/go-retry"

	"github.com/tripdiary/backend/internal/domain"
	"github.com/tripdiary/backend/internal/metrics"
)

// Repos bundles one repo of each kind over the same connection.
// Inside Store.WithTx every repo shares the transaction.
type Repos struct {
	Trips  TripRepo
	Days   TripDayRepo
	Places PlaceRepo
	Items  TimelineItemRepo
}

// NewRepos builds a Repos over db.
func NewRepos(db db) Repos {
	return Repos{
		Trips:  NewTripRepo(db),
		Days:   NewTripDayRepo(db),
		Places: NewPlaceRepo(db),
		Items:  NewTimelineItemRepo(db),
	}
}

// Transactor runs a unit of work atomically. The service layer depends on
// this interface so it can be unit-tested without a database.
type Transactor interface {
	// WithTx calls fn with repos bound to a single transaction. The
	// transaction commits if fn returns nil and rolls back otherwise.
	// fn may be called more than once and must not keep side effects
	// outside the transaction.
	WithTx(ctx context.Context, fn func(r Repos) error) error

	// ReadSnapshot calls fn with repos bound to a read-only transaction,
	// so every query fn issues sees the same snapshot of the database.
	ReadSnapshot(ctx context.Context, fn func(r Repos) error) error
}

// txDB is satisfied by *pgxpool.Pool and pgx.Tx. On a pgx.Tx, Begin opens
// a savepoint, which is how the integration tests nest units of work inside
// their rolled-back test transaction.
type txDB interface {
	db
	Begin(ctx context.Context) (pgx.Tx, error)
}

// txOptionsBeginner is implemented by *pgxpool.Pool but not by pgx.Tx.
type txOptionsBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var snapshotTxOptions = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

// Store owns the connection and hands out plain or transaction-bound repos.
type Store struct {
	conn       txDB
	maxRetries uint64
	baseDelay  time.Duration
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithRetries sets how often a unit of work is retried after a lock or
// serialization failure, and the first backoff delay.
func WithRetries(max uint64, base time.Duration) StoreOption {
	return func(s *Store) {
		s.maxRetries = max
		s.baseDelay = base
	}
}

// NewStore constructs a Store. By default a failed unit of work is retried
// three times starting at 20ms.
func NewStore(conn txDB, opts ...StoreOption) *Store {
	s := &Store{conn: conn, maxRetries: 3, baseDelay: 20 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repos returns repos that run each statement on its own, outside any
// transaction. Use it for single-statement reads; reads spanning several
// queries go through ReadSnapshot.
func (s *Store) Repos() Repos {
	return NewRepos(s.conn)
}

// WithTx implements Transactor. Deadlocks, serialization failures, and lock
// timeouts restart fn in a fresh transaction with exponential backoff; once
// retries run out the error wraps domain.ErrContention.
func (s *Store) WithTx(ctx context.Context, fn func(r Repos) error) error {
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.baseDelay))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
			return fn(NewRepos(tx))
		})
		if isContention(err) {
			metrics.TxRetriesTotal.Inc()
			slog.WarnContext(ctx, "transaction contention", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		return nil
	}
	if isContention(err) {
		return fmt.Errorf("repo.Store.WithTx: %w: %w", domain.ErrContention, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("repo.Store.WithTx: %w", err)
	}
	return err
}

// ReadSnapshot implements Transactor. On a pool the transaction is
// REPEATABLE READ and READ ONLY. Nested inside an existing transaction it
// becomes a savepoint and inherits that transaction's snapshot.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(r Repos) error) error {
	run := func(tx pgx.Tx) error {
		return fn(NewRepos(tx))
	}
	if b, ok := s.conn.(txOptionsBeginner); ok {
		return pgx.BeginTxFunc(ctx, b, snapshotTxOptions, run)
	}
	return pgx.BeginFunc(ctx, s.conn, run)
}
