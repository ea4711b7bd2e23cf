package shipping

import "fmt"

type Method string

const (
	MethodRegular Method = "regular"
	MethodExpress Method = "express"
	MethodSameDay Method = "same_day"
)

// CostFunc computes a shipping cost in currency minor units from the method
// and total shipment weight. The checkout treats it as an opaque function.
type CostFunc func(m Method, totalWeightGrams int) (int, error)

// rate is in hundredths of a minor unit per gram, so regular works out to
// 0.01/g, express 0.02/g, same_day 0.03/g
var rates = map[Method]struct {
	centiPerGram int
	minCents     int
}{
	MethodRegular: {1, 15000},
	MethodExpress: {2, 25000},
	MethodSameDay: {3, 50000},
}

// Cost = max(minimum charge, weight * rate).
func Cost(m Method, totalWeightGrams int) (int, error) {
	r, ok := rates[m]
	if !ok {
		return 0, fmt.Errorf("unknown shipping method %q", m)
	}
	c := totalWeightGrams * r.centiPerGram / 100
	if c < r.minCents {
		c = r.minCents
	}
	return c, nil
}

func ValidMethod(m Method) bool {
	_, ok := rates[m]
	return ok
}
