package mathx

import "golang.org/x/exp/constraints"

// SubSat returns a-b, or 0 when b > a.
func SubSat[T constraints.Unsigned](a, b T) T {
	if b > a {
		return 0
	}
	return a - b
}

// AbsDiff returns |a-b| without overflow for unsigned and signed operands.
func AbsDiff[T constraints.Integer](a, b T) T {
	if a > b {
		return a - b
	}
	return b - a
}
