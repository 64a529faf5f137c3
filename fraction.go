package xlsx

import "math"

const (
	fractionTolerance = 1e-10
	maxFractionSteps  = 14
)

// Fraction approximates x by continued fractions with a denominator no
// larger than maxDen. With mixed set the whole part is split off and
// returned separately; otherwise whole is 0 and num may exceed den.
// A value that is not finite yields 0/1; x must fit an int.
func Fraction(x float64, maxDen int, mixed bool) (whole, num, den int) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, 0, 1
	}
	sgn := 1
	if x < 0 {
		sgn = -1
	}
	b := math.Abs(x)
	p2, p1, p := 0, 1, 0
	q2, q1, q := 1, 0, 0

	for i := 0; i < maxFractionSteps && q1 < maxDen; i++ {
		a := int(math.Floor(b))
		p = a*p1 + p2
		q = a*q1 + q2
		if b-float64(a) < fractionTolerance {
			break
		}
		b = 1 / (b - float64(a))
		p2, p1 = p1, p
		q2, q1 = q1, q
	}
	if q > maxDen {
		q, p = q1, p1
	}
	if q > maxDen {
		q, p = q2, p2
	}
	if q == 0 {
		return 0, 0, 1
	}

	if !mixed {
		return 0, sgn * p, q
	}
	whole = int(math.Floor(float64(sgn*p) / float64(q)))
	return whole, sgn*p - whole*q, q
}
