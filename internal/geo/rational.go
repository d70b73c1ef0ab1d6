package geo

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// MaxDenominator bounds each formatted DMS component.
const MaxDenominator = 1000

// ParseDecimal parses a decimal string such as "-123.45" or "4.5e1" into an
// exact rational.
func ParseDecimal(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("parse decimal degrees: empty value")
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("parse decimal degrees %q: not a decimal number", s)
	}
	return r, nil
}

// RatFromFloat returns the rational with the same shortest decimal
// representation as f. NaN and infinities are rejected.
func RatFromFloat(f float64) (*big.Rat, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("decimal degrees %v is not finite", f)
	}
	return ParseDecimal(strconv.FormatFloat(f, 'g', -1, 64))
}

// LimitDenominator returns the closest rational to r whose denominator is
// at most maxDenominator, choosing between the last convergent and the best
// semiconvergent of r's continued fraction.
func LimitDenominator(r *big.Rat, maxDenominator int64) *big.Rat {
	if maxDenominator < 1 {
		panic("geo: LimitDenominator max must be at least 1")
	}
	limit := big.NewInt(maxDenominator)
	if r.Denom().Cmp(limit) <= 0 {
		return new(big.Rat).Set(r)
	}

	p0, q0 := big.NewInt(0), big.NewInt(1)
	p1, q1 := big.NewInt(1), big.NewInt(0)
	n := new(big.Int).Set(r.Num())
	d := new(big.Int).Set(r.Denom())
	a := new(big.Int)
	tmp := new(big.Int)

	for {
		a.Div(n, d)
		q2 := new(big.Int).Add(q0, tmp.Mul(a, q1))
		if q2.Cmp(limit) > 0 {
			break
		}
		p2 := new(big.Int).Add(p0, tmp.Mul(a, p1))
		p0, q0, p1, q1 = p1, q1, p2, q2
		rem := new(big.Int).Sub(n, tmp.Mul(a, d))
		n, d = d, rem
	}

	k := new(big.Int).Sub(limit, q0)
	k.Div(k, q1)

	bound1 := new(big.Rat).SetFrac(
		new(big.Int).Add(p0, new(big.Int).Mul(k, p1)),
		new(big.Int).Add(q0, new(big.Int).Mul(k, q1)),
	)
	bound2 := new(big.Rat).SetFrac(p1, q1)

	diff1 := new(big.Rat).Sub(bound2, r)
	diff1.Abs(diff1)
	diff2 := new(big.Rat).Sub(bound1, r)
	diff2.Abs(diff2)
	if diff1.Cmp(diff2) <= 0 {
		return bound2
	}
	return bound1
}

// FormatRational renders r as "num/den" after limiting its denominator.
func FormatRational(r *big.Rat) string {
	return ratString(LimitDenominator(r, MaxDenominator))
}

func ratString(r *big.Rat) string {
	return r.Num().String() + "/" + r.Denom().String()
}
