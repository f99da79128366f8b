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

const customerColumns = `id, name, phone, email, plan, monthly_fee, status, due_day,
	start_date, last_payment_date, created_at, updated_at`

// listCustomers reads all customers with q, oldest first
func listCustomers(ctx context.Context, q ports.DBTX) ([]domain.Customer, error) {
	rows, err := q.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

// ListCustomers returns all customers
func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return listCustomers(ctx, s.db.GetDB())
}

// GetCustomer retrieves a customer by its ID
func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return getCustomer(ctx, s.db.GetDB(), id, false)
}

func getCustomer(ctx context.Context, q ports.DBTX, id string, forUpdate bool) (*domain.Customer, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.NotFound(domain.ErrorCodeCustomerNotFound, "customer not found", id)
	}

	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	c, err := scanCustomer(q.QueryRow(ctx, query, customerID))
	if err != nil {
		return nil, notFoundOr(err, domain.ErrorCodeCustomerNotFound, id, "get customer by id")
	}
	return c, nil
}

// AddCustomer inserts a new active customer
func (s *Store) AddCustomer(ctx context.Context, draft domain.CustomerDraft) (*domain.Customer, error) {
	fee, err := decimalToNumeric(draft.MonthlyFee)
	if err != nil {
		return nil, err
	}

	now := s.now()
	start := timeutil.StartOfDay(draft.StartDate)
	c := &domain.Customer{
		ID:         uuid.New().String(),
		Name:       draft.Name,
		Phone:      draft.Phone,
		Email:      draft.Email,
		Plan:       draft.Plan,
		MonthlyFee: draft.MonthlyFee,
		Status:     domain.AccountStatusActive,
		DueDay:     draft.DueDay,
		StartDate:  start,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if draft.LastPaymentDate != nil {
		c.RecordPayment(timeutil.StartOfDay(*draft.LastPaymentDate))
	}

	_, err = s.db.GetDB().Exec(ctx, `
		INSERT INTO customers (id, name, phone, email, plan, monthly_fee, status, due_day,
			start_date, last_payment_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		uuid.MustParse(c.ID), c.Name, c.Phone, nullText(c.Email), c.Plan, fee, string(c.Status), c.DueDay,
		pgtype.Date{Time: start, Valid: true}, nullDate(c.LastPaymentDate), now,
	)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "create customer", err)
	}
	return c, nil
}

// UpdateCustomer applies a partial update inside a transaction
func (s *Store) UpdateCustomer(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	var updated *domain.Customer
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		c, err := getCustomer(ctx, tx, id, true)
		if err != nil {
			return err
		}

		patch.Apply(c)
		c.UpdatedAt = s.now()

		fee, err := decimalToNumeric(c.MonthlyFee)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE customers
			SET name = $2, phone = $3, email = $4, plan = $5, monthly_fee = $6, status = $7,
				due_day = $8, start_date = $9, last_payment_date = $10, updated_at = $11
			WHERE id = $1`,
			uuid.MustParse(c.ID), c.Name, c.Phone, nullText(c.Email), c.Plan, fee, string(c.Status),
			c.DueDay, pgtype.Date{Time: c.StartDate, Valid: true}, nullDate(c.LastPaymentDate), c.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update customer: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCustomer hard-deletes a customer. Payments are left as orphans.
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return domain.NotFound(domain.ErrorCodeCustomerNotFound, "customer not found", id)
	}

	tag, err := s.db.GetDB().Exec(ctx, `DELETE FROM customers WHERE id = $1`, customerID)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(domain.ErrorCodeCustomerNotFound, "customer not found", id)
	}
	return nil
}

// scanCustomer converts a row into a domain customer
func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var (
		id          uuid.UUID
		email       pgtype.Text
		fee         pgtype.Numeric
		status      string
		dueDay      int16
		startDate   pgtype.Date
		lastPayment pgtype.Date
		c           domain.Customer
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(&id, &c.Name, &c.Phone, &email, &c.Plan, &fee, &status, &dueDay,
		&startDate, &lastPayment, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	monthlyFee, err := pgNumericToDecimal(fee)
	if err != nil {
		return nil, fmt.Errorf("convert monthly fee: %w", err)
	}

	c.ID = id.String()
	c.Email = email.String
	c.MonthlyFee = monthlyFee
	c.Status = domain.AccountStatus(status)
	c.DueDay = int(dueDay)
	c.StartDate = dateValue(startDate)
	c.LastPaymentDate = datePtr(lastPayment)
	c.CreatedAt = createdAt.UTC()
	c.UpdatedAt = updatedAt.UTC()
	return &c, nil
}
