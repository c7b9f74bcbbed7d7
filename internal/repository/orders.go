package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lunoxdev/mai-store/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

// CreateOrder inserts the order row and an order.created outbox event in one
// transaction, then fills in the database-generated ID. The display ID is
// patched separately because it depends on that ID.
func (r *Postgres) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO orders (user_id, total_amount, items)
	          VALUES ($1, $2, $3)
	          RETURNING id, order_date`

	if err := tx.QueryRowContext(ctx, query,
		order.UserID,
		order.TotalAmount,
		itemsJSON,
	).Scan(&order.ID, &order.OrderDate); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"order_id":     order.ID,
		"user_id":      order.UserID,
		"items":        order.Items,
		"total_amount": order.TotalAmount,
		"order_date":   order.OrderDate,
	})
	if err != nil {
		return fmt.Errorf("marshal order event payload: %w", err)
	}

	outboxQuery := `INSERT INTO outbox_events (aggregate_id, event_type, payload)
	                VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, outboxQuery, order.ID.String(), "order.created", payload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}
	return nil
}

// SetDisplayID attaches the human-readable identifier to a freshly created
// order. This is the only mutation an order row ever sees.
func (r *Postgres) SetDisplayID(ctx context.Context, id uuid.UUID, displayID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET display_id = $2 WHERE id = $1`, id, displayID)
	if err != nil {
		return fmt.Errorf("update order display_id: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("display_id rows affected: %w", err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListOrdersByUser returns one user's order history, newest first.
func (r *Postgres) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `SELECT id, COALESCE(display_id, ''), user_id, total_amount, items, order_date
	          FROM orders WHERE user_id = $1 ORDER BY order_date DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows, false)
}

// ListAllOrders returns every order joined with the owner's profile email,
// newest first. Used by the admin order browser.
func (r *Postgres) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT o.id, COALESCE(o.display_id, ''), o.user_id, o.total_amount, o.items, o.order_date,
	                 COALESCE(p.email, '')
	          FROM orders o
	          LEFT JOIN profiles p ON p.id = o.user_id
	          ORDER BY o.order_date DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows, true)
}

func scanOrders(rows *sql.Rows, withEmail bool) ([]*domain.Order, error) {
	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		var itemsJSON []byte

		dest := []interface{}{
			&order.ID, &order.DisplayID, &order.UserID,
			&order.TotalAmount, &itemsJSON, &order.OrderDate,
		}
		if withEmail {
			dest = append(dest, &order.UserEmail)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}
