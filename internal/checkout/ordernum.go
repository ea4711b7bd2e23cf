package checkout

import (
	"crypto/rand"
	"time"
)

const numAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ" // tanpa 0/O/1/I

// NewOrderNumber returns a human-readable order number like
// ORD-20260826-7KQ2MX. Uniqueness is enforced by the orders table.
func NewOrderNumber(t time.Time) string {
	suffix := make([]byte, 6)
	_, _ = rand.Read(suffix)
	for i, b := range suffix {
		suffix[i] = numAlphabet[int(b)%len(numAlphabet)]
	}
	return "ORD-" + t.UTC().Format("20060102") + "-" + string(suffix)
}
