package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("order not found")
	ErrNumberConflict = errors.New("order number conflict")
)

const (
	// Concurrent creations race on the number unique index when the table is
	// empty (no max row to lock); the loser retries with a fresh read.
	createAttempts = 3

	permalinkAttempts = 5
)

const orderColumns = `id, number, permalink, first_name, last_name, email_address,
	street_line_1, street_line_2, postal_code, city, region, country,
	amount_cents, payment_intent_id, paid_at, created_at, updated_at`

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Create persists the order, allocating its number and permalink inside a
// single transaction. The number read locks the current maximum row so two
// creations cannot observe the same value; the unique index backstops the
// empty-table case, in which case the insert is retried.
func (s *OrderStore) Create(ctx context.Context, order *Order) error {
	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		err := s.createOnce(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNumberConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (s *OrderStore) createOnce(ctx context.Context, order *Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current := firstNumber
	err = tx.QueryRow(ctx, `SELECT number FROM orders ORDER BY number DESC LIMIT 1 FOR UPDATE`).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to read current order number: %w", err)
	}
	number := incrementNumber(current)

	permalink, err := s.freshPermalink(ctx, tx)
	if err != nil {
		return err
	}

	id := uuid.New()
	var createdAt, updatedAt pgtype.Timestamptz
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (
			id, number, permalink, first_name, last_name, email_address,
			street_line_1, street_line_2, postal_code, city, region, country,
			amount_cents, payment_intent_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`,
		id, number, permalink,
		order.FirstName, order.LastName, order.EmailAddress,
		order.StreetLine1, order.StreetLine2, order.PostalCode,
		order.City, order.Region, order.Country,
		order.AmountCents, textOrNull(order.PaymentIntentID),
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrNumberConflict, err)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	order.ID = id
	order.Number = number
	order.Permalink = permalink
	order.CreatedAt = createdAt.Time
	order.UpdatedAt = updatedAt.Time
	return nil
}

func (s *OrderStore) freshPermalink(ctx context.Context, tx pgx.Tx) (string, error) {
	for attempt := 0; attempt < permalinkAttempts; attempt++ {
		permalink, err := newPermalink()
		if err != nil {
			return "", err
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE permalink = $1)`, permalink).Scan(&exists); err != nil {
			return "", fmt.Errorf("failed to check permalink uniqueness: %w", err)
		}
		if !exists {
			return permalink, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique permalink")
}

func (s *OrderStore) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (s *OrderStore) GetByPermalink(ctx context.Context, permalink string) (*Order, error) {
	return s.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE permalink = $1`, permalink)
}

func (s *OrderStore) getOne(ctx context.Context, query string, arg any) (*Order, error) {
	row := s.pool.QueryRow(ctx, query, arg)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

// List returns all orders, newest first.
func (s *OrderStore) List(ctx context.Context) ([]*Order, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY number DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateBilling rewrites the customer-entered billing fields. Identity,
// payment linkage, and paid state are not touched here.
func (s *OrderStore) UpdateBilling(ctx context.Context, order *Order) error {
	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET first_name = $2, last_name = $3, email_address = $4,
		    street_line_1 = $5, street_line_2 = $6, postal_code = $7,
		    city = $8, region = $9, country = $10, updated_at = now()
		WHERE id = $1`,
		order.ID,
		order.FirstName, order.LastName, order.EmailAddress,
		order.StreetLine1, order.StreetLine2, order.PostalCode,
		order.City, order.Region, order.Country,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *OrderStore) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid records the provider-reported payment timestamp exactly once. A
// second call is a no-op; the stored value wins.
func (s *OrderStore) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET paid_at = $2, updated_at = now()
		WHERE id = $1 AND paid_at IS NULL`,
		id, paidAt,
	)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanOrder(row scannable) (*Order, error) {
	var (
		order           Order
		paymentIntentID pgtype.Text
		paidAt          pgtype.Timestamptz
		createdAt       pgtype.Timestamptz
		updatedAt       pgtype.Timestamptz
	)

	err := row.Scan(
		&order.ID, &order.Number, &order.Permalink,
		&order.FirstName, &order.LastName, &order.EmailAddress,
		&order.StreetLine1, &order.StreetLine2, &order.PostalCode,
		&order.City, &order.Region, &order.Country,
		&order.AmountCents, &paymentIntentID, &paidAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paymentIntentID.Valid {
		order.PaymentIntentID = paymentIntentID.String
	}
	if paidAt.Valid {
		t := paidAt.Time
		order.PaidAt = &t
	}
	order.CreatedAt = createdAt.Time
	order.UpdatedAt = updatedAt.Time
	return &order, nil
}

func textOrNull(value string) pgtype.Text {
	return pgtype.Text{String: value, Valid: value != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
