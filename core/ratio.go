package core

// Ratio is an exact signed rational used for feed, drive and direction
// multipliers. The zero value is the null ratio (0/1 after normalisation).
//
// Terms are kept below 2^31 so that Scale on a count below 2^31 never
// overflows an int64 intermediate.
type Ratio struct {
	Num int64
	Den int64
}

const ratioTermLimit = 1 << 31

// NewRatio returns num/den reduced to lowest terms with a positive
// denominator. A zero denominator yields the null ratio.
func NewRatio(num, den int64) Ratio {
	if den == 0 || num == 0 {
		return Ratio{0, 1}
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs64(num), den)
	num, den = num/g, den/g
	if abs64(num) >= ratioTermLimit || den >= ratioTermLimit {
		n, d := approximate(abs64(num), den)
		if num < 0 {
			n = -n
		}
		num, den = n, d
	}
	if num == 0 {
		return Ratio{0, 1}
	}
	return Ratio{num, den}
}

// approximate returns the closest fraction to n/d (both positive) whose
// terms stay below ratioTermLimit. It walks the continued fraction of n/d
// and stops at the last convergent, or semiconvergent, that fits.
func approximate(n, d int64) (int64, int64) {
	const limit = ratioTermLimit - 1
	h0, h1 := int64(0), int64(1)
	k0, k1 := int64(1), int64(0)
	for d != 0 {
		a := n / d
		t := a
		if h1 > 0 && t > (limit-h0)/h1 {
			t = (limit - h0) / h1
		}
		if k1 > 0 && t > (limit-k0)/k1 {
			t = (limit - k0) / k1
		}
		if t < a {
			if k1 == 0 {
				// n/d itself is past the limit
				return limit, 1
			}
			if 2*t > a {
				return t*h1 + h0, t*k1 + k0
			}
			return h1, k1
		}
		h0, h1 = h1, a*h1+h0
		k0, k1 = k1, a*k1+k0
		n, d = d, n-a*d
	}
	return h1, k1
}

// One is the identity ratio.
func One() Ratio { return Ratio{1, 1} }

// IsZero reports whether r is the null ratio.
func (r Ratio) IsZero() bool { return r.Num == 0 }

// Normalized returns r in canonical form. Ratio literals built without
// NewRatio compare equal to their reduced form only after normalising.
func (r Ratio) Normalized() Ratio { return NewRatio(r.Num, r.Den) }

// Mul returns r*o, cross-reducing before multiplying.
func (r Ratio) Mul(o Ratio) Ratio {
	r, o = r.Normalized(), o.Normalized()
	if r.IsZero() || o.IsZero() {
		return Ratio{0, 1}
	}
	g1 := gcd(abs64(r.Num), o.Den)
	g2 := gcd(abs64(o.Num), r.Den)
	num := (r.Num / g1) * (o.Num / g2)
	den := (r.Den / g2) * (o.Den / g1)
	return NewRatio(num, den)
}

// Neg returns -r.
func (r Ratio) Neg() Ratio { return Ratio{-r.Num, r.Den}.Normalized() }

// Scale returns round(count * r), rounding halves away from zero.
func (r Ratio) Scale(count int64) int64 {
	if r.Den == 0 || r.Num == 0 {
		return 0
	}
	p := count * r.Num
	if r.Den == 1 {
		return p
	}
	if p >= 0 {
		return (2*p + r.Den) / (2 * r.Den)
	}
	return -((-2*p + r.Den) / (2 * r.Den))
}

// String renders the ratio as "num/den".
func (r Ratio) String() string {
	r = r.Normalized()
	return itoa(int(r.Num)) + "/" + itoa(int(r.Den))
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
