package geo

import (
	"math/big"
	"strings"
)

var sixty = big.NewRat(60, 1)

// DMS is an unsigned degrees/minutes/seconds decomposition. Degrees and
// Minutes are whole numbers; Seconds may be fractional.
type DMS struct {
	Degrees *big.Rat
	Minutes *big.Rat
	Seconds *big.Rat
}

// Decompose splits |value| into degrees, minutes and seconds using exact
// rational arithmetic:
//
//	d = trunc(|x|)
//	m = trunc((|x| - d) * 60)
//	s = ((|x| - d) * 60 - m) * 60
func Decompose(value *big.Rat) DMS {
	abs := new(big.Rat).Abs(value)

	degrees := trunc(abs)
	remainder := new(big.Rat).Sub(abs, degrees)

	decimalMinutes := new(big.Rat).Mul(remainder, sixty)
	minutes := trunc(decimalMinutes)

	seconds := new(big.Rat).Sub(decimalMinutes, minutes)
	seconds.Mul(seconds, sixty)

	return DMS{Degrees: degrees, Minutes: minutes, Seconds: seconds}
}

// DecomposeFloat is Decompose for a float64 taken at its shortest decimal
// representation.
func DecomposeFloat(value float64) (DMS, error) {
	r, err := RatFromFloat(value)
	if err != nil {
		return DMS{}, err
	}
	return Decompose(r), nil
}

// Limit bounds every component's denominator by MaxDenominator. Seconds
// that round up to 60 carry into minutes, and minutes into degrees, so the
// result still satisfies minutes < 60 and seconds < 60.
func (d DMS) Limit() DMS {
	out := DMS{
		Degrees: LimitDenominator(d.Degrees, MaxDenominator),
		Minutes: LimitDenominator(d.Minutes, MaxDenominator),
		Seconds: LimitDenominator(d.Seconds, MaxDenominator),
	}
	if out.Seconds.Cmp(sixty) >= 0 {
		out.Seconds.Sub(out.Seconds, sixty)
		out.Minutes.Add(out.Minutes, big.NewRat(1, 1))
	}
	if out.Minutes.Cmp(sixty) >= 0 {
		out.Minutes.Sub(out.Minutes, sixty)
		out.Degrees.Add(out.Degrees, big.NewRat(1, 1))
	}
	return out
}

// String formats the triple as "D/d M/m S/s" after Limit.
func (d DMS) String() string {
	limited := d.Limit()
	parts := []string{ratString(limited.Degrees), ratString(limited.Minutes), ratString(limited.Seconds)}
	return strings.Join(parts, " ")
}

// Equal reports whether both decompositions are exactly the same rationals.
func (d DMS) Equal(other DMS) bool {
	return d.Degrees.Cmp(other.Degrees) == 0 &&
		d.Minutes.Cmp(other.Minutes) == 0 &&
		d.Seconds.Cmp(other.Seconds) == 0
}

// trunc returns the integer part of a non-negative rational.
func trunc(r *big.Rat) *big.Rat {
	q := new(big.Int).Quo(r.Num(), r.Denom())
	return new(big.Rat).SetInt(q)
}
