package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCost(t *testing.T) {
	cases := []struct {
		name   string
		method Method
		weight int
		want   int
	}{
		{"regular light hits minimum", MethodRegular, 400, 15000},
		{"regular heavy scales", MethodRegular, 2000000, 20000},
		{"express light hits minimum", MethodExpress, 400, 25000},
		{"express heavy scales", MethodExpress, 2000000, 40000},
		{"same_day light hits minimum", MethodSameDay, 400, 50000},
		{"same_day heavy scales", MethodSameDay, 2000000, 60000},
		{"zero weight", MethodRegular, 0, 15000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Cost(tc.method, tc.weight)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCostUnknownMethod(t *testing.T) {
	_, err := Cost(Method("teleport"), 100)
	assert.Error(t, err)
}

func TestValidMethod(t *testing.T) {
	assert.True(t, ValidMethod(MethodRegular))
	assert.True(t, ValidMethod(MethodExpress))
	assert.True(t, ValidMethod(MethodSameDay))
	assert.False(t, ValidMethod(Method("teleport")))
}
