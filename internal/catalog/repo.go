package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product not found")

type Repo struct{ DB *pgxpool.Pool }

const productCols = `id, name, COALESCE(description,''), price, COALESCE(category,''),
       COALESCE(image_url,''), stock_quantity, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category,
		&p.ImageURL, &p.StockQuantity, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]Product, error) {
	q := `SELECT ` + productCols + ` FROM products WHERE is_active = TRUE`
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		q += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		q += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 10
	}
	args = append(args, f.Limit, f.Skip)
	q += fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns active products only; soft-deleted rows behave as missing.
func (r *Repo) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1 AND is_active = TRUE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) Create(ctx context.Context, in ProductInput) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `
		INSERT INTO products(name, description, price, category, image_url, stock_quantity)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+productCols,
		in.Name, in.Description, in.Price, in.Category, in.ImageURL, in.StockQuantity))
	return p, err
}

func (r *Repo) Update(ctx context.Context, id int64, u ProductUpdate) (Product, error) {
	q := `UPDATE products SET updated_at = now()`
	args := []any{}
	set := func(col string, v any) {
		args = append(args, v)
		q += fmt.Sprintf(`, %s = $%d`, col, len(args))
	}
	if u.Name != nil {
		set("name", *u.Name)
	}
	if u.Description != nil {
		set("description", *u.Description)
	}
	if u.Price != nil {
		set("price", *u.Price)
	}
	if u.Category != nil {
		set("category", *u.Category)
	}
	if u.ImageURL != nil {
		set("image_url", *u.ImageURL)
	}
	if u.StockQuantity != nil {
		set("stock_quantity", *u.StockQuantity)
	}
	if u.IsActive != nil {
		set("is_active", *u.IsActive)
	}
	args = append(args, id)
	q += fmt.Sprintf(` WHERE id = $%d RETURNING `+productCols, len(args))

	p, err := scanProduct(r.DB.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// SoftDelete keeps the row so past order items stay resolvable.
func (r *Repo) SoftDelete(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE products SET is_active = FALSE, updated_at = now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT DISTINCT category FROM products
		WHERE category IS NOT NULL AND category <> '' AND is_active = TRUE
		ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
