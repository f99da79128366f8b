package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

const paymentColumns = `id, customer_id, customer_name, amount, paid_on, method, status, reference_id, created_at`

func listPayments(ctx context.Context, q ports.DBTX) ([]domain.Payment, error) {
	rows, err := q.Query(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}

// ListPayments returns all payments in recording order
func (s *Store) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	return listPayments(ctx, s.db.GetDB())
}

// GetPayment retrieves a payment by its ID
func (s *Store) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	return getPayment(ctx, s.db.GetDB(), id)
}

func getPayment(ctx context.Context, q ports.DBTX, id string) (*domain.Payment, error) {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.NotFound(domain.ErrorCodePaymentNotFound, "payment not found", id)
	}

	p, err := scanPayment(q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID))
	if err != nil {
		return nil, notFoundOr(err, domain.ErrorCodePaymentNotFound, id, "get payment by id")
	}
	return p, nil
}

// AddPayment inserts the payment and advances the customer's last payment
// date in one transaction. The date never moves backwards.
func (s *Store) AddPayment(ctx context.Context, draft domain.PaymentDraft) (*domain.Payment, error) {
	amount, err := decimalToNumeric(draft.Amount)
	if err != nil {
		return nil, err
	}

	p := &domain.Payment{
		ID:           uuid.New().String(),
		CustomerID:   draft.CustomerID,
		CustomerName: domain.UnknownCustomerName,
		Amount:       draft.Amount,
		Date:         timeutil.StartOfDay(draft.Date),
		Method:       draft.Method,
		Status:       draft.Status,
		ReferenceID:  draft.ReferenceID,
		CreatedAt:    s.now(),
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		c, err := getCustomer(ctx, tx, draft.CustomerID, true)
		switch {
		case err == nil:
			p.CustomerName = c.Name
		case domain.IsNotFoundError(err):
			// orphan payment, recorded without a customer update
			c = nil
		default:
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO payments (id, customer_id, customer_name, amount, paid_on, method, status, reference_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.MustParse(p.ID), p.CustomerID, p.CustomerName, amount, pgtype.Date{Time: p.Date, Valid: true},
			p.Method, string(p.Status), nullText(p.ReferenceID), p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		if c == nil || !c.RecordPayment(p.Date) {
			return nil
		}
		_, err = tx.Exec(ctx,
			`UPDATE customers SET last_payment_date = $2, updated_at = $3 WHERE id = $1`,
			uuid.MustParse(c.ID), pgtype.Date{Time: p.Date, Valid: true}, p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("advance last payment date: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePayment applies a partial update inside a transaction
func (s *Store) UpdatePayment(ctx context.Context, id string, patch domain.PaymentPatch) (*domain.Payment, error) {
	var updated *domain.Payment
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		p, err := getPayment(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(p)

		amount, err := decimalToNumeric(p.Amount)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE payments SET amount = $2, paid_on = $3, method = $4, status = $5, reference_id = $6
			WHERE id = $1`,
			uuid.MustParse(p.ID), amount, pgtype.Date{Time: p.Date, Valid: true}, p.Method,
			string(p.Status), nullText(p.ReferenceID),
		)
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePayment removes a payment. Aggregates drop it retroactively.
func (s *Store) DeletePayment(ctx context.Context, id string) error {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return domain.NotFound(domain.ErrorCodePaymentNotFound, "payment not found", id)
	}

	tag, err := s.db.GetDB().Exec(ctx, `DELETE FROM payments WHERE id = $1`, paymentID)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(domain.ErrorCodePaymentNotFound, "payment not found", id)
	}
	return nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		id        uuid.UUID
		amount    pgtype.Numeric
		paidOn    pgtype.Date
		status    string
		reference pgtype.Text
		createdAt time.Time
		p         domain.Payment
	)

	if err := row.Scan(&id, &p.CustomerID, &p.CustomerName, &amount, &paidOn, &p.Method,
		&status, &reference, &createdAt); err != nil {
		return nil, err
	}

	dec, err := pgNumericToDecimal(amount)
	if err != nil {
		return nil, fmt.Errorf("convert amount: %w", err)
	}

	p.ID = id.String()
	p.Amount = dec
	p.Date = dateValue(paidOn)
	p.Status = domain.PaymentStatus(status)
	p.ReferenceID = reference.String
	p.CreatedAt = createdAt.UTC()
	return &p, nil
}
