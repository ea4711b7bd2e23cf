package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product or sku not found")

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) GetProductAndSKU(ctx context.Context, productID, skuCode string) (Product, SKU, error) {
	var (
		p Product
		s SKU
	)
	err := r.DB.QueryRow(ctx, `
		SELECT p.id, p.name, p.price_cents, p.image_url, p.is_active,
		       s.sku_code, s.product_id, s.size, s.color, s.price_cents, s.stock, s.weight_grams, s.is_active
		FROM products p
		JOIN skus s ON s.product_id = p.id
		WHERE p.id = $1 AND s.sku_code = $2`, productID, skuCode).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.ImageURL, &p.IsActive,
			&s.Code, &s.ProductID, &s.Size, &s.Color, &s.PriceCents, &s.Stock, &s.WeightGrams, &s.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, SKU{}, ErrNotFound
	}
	if err != nil {
		return Product{}, SKU{}, err
	}
	return p, s, nil
}

// TryDecrement is the stock-reservation choke point. The WHERE clause makes
// the decrement conditional on sufficient stock in a single statement, so two
// racing checkouts serialize on the row and stock can never go negative.
func (r *Repo) TryDecrement(ctx context.Context, skuCode string, qty int) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE skus SET stock = stock - $2, updated_at = now()
		WHERE sku_code = $1 AND stock >= $2`, skuCode, qty)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// Increment restores stock. Used by checkout compensation and by order
// cancellation; idempotency is on the caller.
func (r *Repo) Increment(ctx context.Context, skuCode string, qty int) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE skus SET stock = stock + $2, updated_at = now()
		WHERE sku_code = $1`, skuCode, qty)
	return err
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, price_cents, image_url, is_active, created_at, updated_at
		FROM products WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	byID := map[string]int{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		byID[p.ID] = len(out)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	srows, err := r.DB.Query(ctx, `
		SELECT sku_code, product_id, size, color, price_cents, stock, weight_grams, is_active
		FROM skus ORDER BY sku_code`)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var s SKU
		if err := srows.Scan(&s.Code, &s.ProductID, &s.Size, &s.Color, &s.PriceCents, &s.Stock, &s.WeightGrams, &s.IsActive); err != nil {
			return nil, err
		}
		if i, ok := byID[s.ProductID]; ok {
			out[i].SKUs = append(out[i].SKUs, s)
		}
	}
	return out, srows.Err()
}
