package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrItemNotFound    = errors.New("cart item not found")
	ErrProductNotFound = errors.New("product not found")
)

// StockError reports an add/update that would exceed available stock.
type StockError struct {
	ProductName string
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("only %d units of '%s' available", e.Available, e.ProductName)
}

// checkStock validates a requested line quantity against current stock.
// For adds the requested quantity is the merged total, existing plus new.
func checkStock(name string, stock, want int) error {
	if stock < want {
		return &StockError{ProductName: name, Available: stock}
	}
	return nil
}

type Repo struct{ DB *pgxpool.Pool }

const lineQuery = `
	SELECT c.id, c.product_id, p.name, p.price, p.stock_quantity, p.is_active, c.quantity
	FROM cart_items c
	JOIN products p ON p.id = c.product_id`

func (r *Repo) List(ctx context.Context, userID int64) ([]Line, error) {
	rows, err := r.DB.Query(ctx, lineQuery+`
		WHERE c.user_id = $1 AND p.is_active = TRUE
		ORDER BY c.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLines(rows)
}

// Lines returns every cart row for checkout, inactive products included,
// so the order workflow can reject them by name.
func (r *Repo) Lines(ctx context.Context, userID int64) ([]Line, error) {
	rows, err := r.DB.Query(ctx, lineQuery+`
		WHERE c.user_id = $1
		ORDER BY c.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLines(rows)
}

func scanLines(rows pgx.Rows) ([]Line, error) {
	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.ProductID, &l.ProductName, &l.Price,
			&l.StockQuantity, &l.IsActive, &l.Quantity); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Add inserts a line or merges quantity into an existing one. The merged
// quantity is validated against current stock.
func (r *Repo) Add(ctx context.Context, userID int64, in AddInput) (Line, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Line{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var name string
	var stock int
	err = tx.QueryRow(ctx, `
		SELECT name, stock_quantity FROM products
		WHERE id = $1 AND is_active = TRUE
		FOR UPDATE`, in.ProductID).Scan(&name, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return Line{}, ErrProductNotFound
	}
	if err != nil {
		return Line{}, err
	}

	var existing int
	err = tx.QueryRow(ctx, `
		SELECT quantity FROM cart_items WHERE user_id=$1 AND product_id=$2`,
		userID, in.ProductID).Scan(&existing)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Line{}, err
	}

	if err := checkStock(name, stock, existing+in.Quantity); err != nil {
		return Line{}, err
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO cart_items(user_id, product_id, quantity)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + $3
		RETURNING id`, userID, in.ProductID, in.Quantity).Scan(&id)
	if err != nil {
		return Line{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Line{}, err
	}
	return r.get(ctx, userID, id)
}

func (r *Repo) UpdateQuantity(ctx context.Context, userID, itemID int64, qty int) (Line, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Line{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var productID int64
	err = tx.QueryRow(ctx, `
		SELECT product_id FROM cart_items WHERE id=$1 AND user_id=$2`,
		itemID, userID).Scan(&productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Line{}, ErrItemNotFound
	}
	if err != nil {
		return Line{}, err
	}

	var name string
	var stock int
	if err := tx.QueryRow(ctx, `
		SELECT name, stock_quantity FROM products WHERE id=$1 FOR UPDATE`,
		productID).Scan(&name, &stock); err != nil {
		return Line{}, err
	}
	if err := checkStock(name, stock, qty); err != nil {
		return Line{}, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE cart_items SET quantity=$3 WHERE id=$1 AND user_id=$2`,
		itemID, userID, qty); err != nil {
		return Line{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Line{}, err
	}
	return r.get(ctx, userID, itemID)
}

func (r *Repo) Remove(ctx context.Context, userID, itemID int64) error {
	ct, err := r.DB.Exec(ctx,
		`DELETE FROM cart_items WHERE id=$1 AND user_id=$2`, itemID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context, userID int64) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}

func (r *Repo) get(ctx context.Context, userID, itemID int64) (Line, error) {
	var l Line
	err := r.DB.QueryRow(ctx, lineQuery+`
		WHERE c.id = $1 AND c.user_id = $2`, itemID, userID).
		Scan(&l.ID, &l.ProductID, &l.ProductName, &l.Price,
			&l.StockQuantity, &l.IsActive, &l.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return Line{}, ErrItemNotFound
	}
	return l, err
}
