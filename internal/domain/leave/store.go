package leave

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"leaveledger/internal/platform/querier"
)

// PostgresStore persists employees and leave requests in Postgres. Id lookups made
// inside Transact take row locks (SELECT ... FOR UPDATE).
type PostgresStore struct {
	DB     querier.Pool
	logger *zap.Logger
}

func NewPostgresStore(db querier.Pool, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.L()
	}
	return &PostgresStore{DB: db, logger: logger.Named("leave.store")}
}

func (s *PostgresStore) Transact(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.run(ctx, pgx.TxOptions{}, true, fn)
}

func (s *PostgresStore) View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.run(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, false, fn)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

func (s *PostgresStore) run(ctx context.Context, opts pgx.TxOptions, lock bool, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			s.rollback(ctx, tx)
			panic(p)
		}
	}()

	if err := fn(ctx, &pgTx{q: tx, lock: lock}); err != nil {
		s.rollback(ctx, tx)
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) rollback(ctx context.Context, tx pgx.Tx) {
	if rbErr := tx.Rollback(ctx); rbErr != nil {
		s.logger.Warn("leave store rollback failed", zap.Error(rbErr))
	}
}
