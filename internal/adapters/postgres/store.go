package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kevin07696/recurringhub/internal/domain/ports"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// Store implements ports.Store on PostgreSQL
type Store struct {
	db  ports.DBPort
	now func() time.Time
}

var _ ports.Store = (*Store)(nil)

// NewStore creates a PostgreSQL-backed store
func NewStore(db ports.DBPort) *Store {
	return &Store{db: db, now: timeutil.Now}
}

// Snapshot reads customers and payments in one read-only transaction
func (s *Store) Snapshot(ctx context.Context) (*ports.Snapshot, error) {
	snap := &ports.Snapshot{}
	err := s.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		customers, err := listCustomers(ctx, tx)
		if err != nil {
			return err
		}
		payments, err := listPayments(ctx, tx)
		if err != nil {
			return err
		}
		snap.Customers = customers
		snap.Payments = payments
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.GetDB().Ping(ctx)
}
