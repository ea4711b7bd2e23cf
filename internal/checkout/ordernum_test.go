package checkout

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderNumber(t *testing.T) {
	ts := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	n := NewOrderNumber(ts)

	assert.True(t, strings.HasPrefix(n, "ORD-20260826-"), n)
	assert.Len(t, n, len("ORD-20260826-")+6)
	for _, ch := range n[len("ORD-20260826-"):] {
		assert.Contains(t, numAlphabet, string(ch))
	}
}

func TestNewOrderNumberVaries(t *testing.T) {
	ts := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[NewOrderNumber(ts)] = true
	}
	// collisions are possible but 50 in a row all colliding is not
	assert.Greater(t, len(seen), 1)
}
