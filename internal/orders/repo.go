package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("order not found")

	// ErrStatusConflict: the compare-and-set on the status column matched no
	// row, i.e. someone else transitioned the order first.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

type Repo struct{ DB *pgxpool.Pool }

// Create persists the order and its item snapshots in one tx.
func (r *Repo) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, order_number, user_id,
			subtotal_cents, shipping_cents, tax_cents, discount_cents, total_cents,
			recipient, phone, street, city, province, postal_code,
			shipping_method, payment_method, status, payment_status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		o.ID, o.Number, o.UserID,
		o.SubtotalCents, o.ShippingCents, o.TaxCents, o.DiscountCents, o.TotalCents,
		o.Address.Recipient, o.Address.Phone, o.Address.Street, o.Address.City, o.Address.Province, o.Address.PostalCode,
		o.ShippingMethod, o.PaymentMethod, o.Status, o.PaymentStatus, o.Notes)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, sku_code, name, size, color, qty, price_cents, weight_grams, image_url)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			o.ID, it.ProductID, it.SKUCode, it.Name, it.Size, it.Color, it.Qty, it.PriceCents, it.WeightGrams, it.ImageURL); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) GetByID(ctx context.Context, id string) (Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_number, user_id,
		       subtotal_cents, shipping_cents, tax_cents, discount_cents, total_cents,
		       recipient, phone, street, city, province, postal_code,
		       shipping_method, payment_method, status, payment_status,
		       tracking_number, payment_ref, cancel_reason, notes, created_at, updated_at
		FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.Number, &o.UserID,
			&o.SubtotalCents, &o.ShippingCents, &o.TaxCents, &o.DiscountCents, &o.TotalCents,
			&o.Address.Recipient, &o.Address.Phone, &o.Address.Street, &o.Address.City, &o.Address.Province, &o.Address.PostalCode,
			&o.ShippingMethod, &o.PaymentMethod, &o.Status, &o.PaymentStatus,
			&o.TrackingNumber, &o.PaymentRef, &o.CancelReason, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT product_id, sku_code, name, size, color, qty, price_cents, weight_grams, image_url
		FROM order_items WHERE order_id = $1`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.SKUCode, &it.Name, &it.Size, &it.Color, &it.Qty, &it.PriceCents, &it.WeightGrams, &it.ImageURL); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_number, user_id, total_cents, status, payment_status, created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Number, &o.UserID, &o.TotalCents, &o.Status, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus transitions the fulfillment status with a compare-and-set on
// the previous value. Nothing is written when the order moved concurrently.
func (r *Repo) UpdateStatus(ctx context.Context, id string, from, to Status, f StatusFields) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status = $3,
			tracking_number = COALESCE(NULLIF($4, ''), tracking_number),
			cancel_reason   = COALESCE(NULLIF($5, ''), cancel_reason),
			updated_at = now()
		WHERE id = $1 AND status = $2`, id, from, to, f.TrackingNumber, f.CancelReason)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrStatusConflict
	}
	return nil
}

func (r *Repo) UpdatePaymentStatus(ctx context.Context, id string, from, to PaymentStatus, f PaymentFields) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET payment_status = $3,
			payment_ref = COALESCE(NULLIF($4, ''), payment_ref),
			updated_at = now()
		WHERE id = $1 AND payment_status = $2`, id, from, to, f.PaymentRef)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrStatusConflict
	}
	return nil
}
