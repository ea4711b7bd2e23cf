package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// Load returns the user's cart, empty if none exists yet. Carts are created
// lazily on first write, not here.
func (r *Repo) Load(ctx context.Context, userID string) (Cart, error) {
	c := Cart{UserID: userID}
	err := r.DB.QueryRow(ctx, `SELECT id, updated_at FROM carts WHERE user_id = $1`, userID).
		Scan(&c.ID, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, nil
	}
	if err != nil {
		return Cart{}, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT product_id, sku_code, qty, price_cents
		FROM cart_lines WHERE cart_id = $1 ORDER BY added_at`, c.ID)
	if err != nil {
		return Cart{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.SKUCode, &l.Qty, &l.PriceCents); err != nil {
			return Cart{}, err
		}
		c.Lines = append(c.Lines, l)
	}
	return c, rows.Err()
}

// UpsertLine adds a line or replaces the qty/price of the existing
// (product, sku) line. At most one line per pair.
func (r *Repo) UpsertLine(ctx context.Context, userID string, l Line) error {
	if l.Qty < 1 {
		return fmt.Errorf("invalid qty %d for sku=%s", l.Qty, l.SKUCode)
	}
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cartID, err := r.ensureCart(ctx, tx, userID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO cart_lines(cart_id, product_id, sku_code, qty, price_cents)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id, sku_code)
		DO UPDATE SET qty = EXCLUDED.qty, price_cents = EXCLUDED.price_cents`,
		cartID, l.ProductID, l.SKUCode, l.Qty, l.PriceCents); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) RemoveLine(ctx context.Context, userID, productID, skuCode string) error {
	_, err := r.DB.Exec(ctx, `
		DELETE FROM cart_lines
		WHERE cart_id = (SELECT id FROM carts WHERE user_id = $1)
		  AND product_id = $2 AND sku_code = $3`, userID, productID, skuCode)
	return err
}

// Clear empties the line list. Called exactly once per checkout, after the
// order has been persisted.
func (r *Repo) Clear(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, `
		DELETE FROM cart_lines
		WHERE cart_id = (SELECT id FROM carts WHERE user_id = $1)`, userID)
	return err
}

func (r *Repo) ensureCart(ctx context.Context, tx pgx.Tx, userID string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	id = uuid.NewString()
	if _, err := tx.Exec(ctx, `
		INSERT INTO carts(id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`, id, userID); err != nil {
		return "", err
	}
	// race lost -> ambil yang sudah ada
	if err := tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
