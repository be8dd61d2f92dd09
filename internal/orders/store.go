package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct{ DB *pgxpool.Pool }

const orderCols = `id, user_id, total_amount, status, shipping_address,
       COALESCE(payment_ref,''), COALESCE(tracking_number,''), created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.ShippingAddress,
		&o.PaymentRef, &o.TrackingNumber, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// CreateConfirmed runs the row phase of checkout in one transaction:
// stock is re-checked under FOR UPDATE and decremented, the order and its
// items are inserted, and the user's cart is cleared. Any shortfall rolls
// the whole thing back. The payment charge has already happened by the
// time this runs; a crash before commit leaves a charge with no order.
func (s *PgStore) CreateConfirmed(ctx context.Context, o *Order, items []Item) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range items {
		var stock int
		if err := tx.QueryRow(ctx,
			`SELECT stock_quantity FROM products WHERE id=$1 FOR UPDATE`,
			it.ProductID).Scan(&stock); err != nil {
			return err
		}
		if stock < it.Quantity {
			return &ValidationError{Msg: fmt.Sprintf("insufficient stock for product %d", it.ProductID)}
		}
		if _, err := tx.Exec(ctx,
			`UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = now() WHERE id=$1`,
			it.ProductID, it.Quantity); err != nil {
			return err
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders(user_id, total_amount, status, shipping_address, payment_ref)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at, updated_at`,
		o.UserID, o.TotalAmount, o.Status, o.ShippingAddress, o.PaymentRef).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range items {
		items[i].OrderID = o.ID
		if err := tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, product_id, quantity, price)
			VALUES ($1,$2,$3,$4) RETURNING id`,
			o.ID, items[i].ProductID, items[i].Quantity, items[i].Price).
			Scan(&items[i].ID); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, o.UserID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PgStore) Get(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (s *PgStore) GetForUser(ctx context.Context, id, userID int64) (Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1 AND user_id=$2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (s *PgStore) ListForUser(ctx context.Context, userID int64, skip, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.DB.Query(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (s *PgStore) ListAll(ctx context.Context, status Status, skip, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + orderCols + ` FROM orders`
	args := []any{}
	if status != "" {
		args = append(args, status)
		q += ` WHERE status = $1`
	}
	args = append(args, limit, skip)
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PgStore) Items(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// MarkCancelled flips the status and restores stock for every item in one
// transaction. The status guard makes a second cancel a no-op rollback.
func (s *PgStore) MarkCancelled(ctx context.Context, orderID int64) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, updated_at = now()
		WHERE id=$1 AND status NOT IN ($3,$4,$5)`,
		orderID, StatusCancelled, StatusShipped, StatusDelivered, StatusCancelled)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return &ValidationError{Msg: "order can no longer be cancelled"}
	}

	rows, err := tx.Query(ctx,
		`SELECT product_id, quantity FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return err
	}
	type rec struct {
		pid int64
		qty int
	}
	var recs []rec
	for rows.Next() {
		var x rec
		if err := rows.Scan(&x.pid, &x.qty); err != nil {
			rows.Close()
			return err
		}
		recs = append(recs, x)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, x := range recs {
		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock_quantity = stock_quantity + $2, updated_at = now()
			WHERE id=$1`, x.pid, x.qty); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PgStore) SetStatus(ctx context.Context, orderID int64, st Status, tracking string) (Order, error) {
	var row pgx.Row
	if tracking != "" {
		row = s.DB.QueryRow(ctx, `
			UPDATE orders SET status=$2, tracking_number=$3, updated_at = now()
			WHERE id=$1 RETURNING `+orderCols, orderID, st, tracking)
	} else {
		row = s.DB.QueryRow(ctx, `
			UPDATE orders SET status=$2, updated_at = now()
			WHERE id=$1 RETURNING `+orderCols, orderID, st)
	}
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}
