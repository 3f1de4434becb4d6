package prover

import "math"

// addOverflows reports whether a+b overflows int64.
func addOverflows(a, b int64) bool {
	if b > 0 {
		return a > math.MaxInt64-b
	}
	return a < math.MinInt64-b
}

// subOverflows reports whether a-b overflows int64.
func subOverflows(a, b int64) bool {
	if b < 0 {
		return a > math.MaxInt64+b
	}
	return a < math.MinInt64+b
}

// mulOverflows reports whether a*b overflows int64.
func mulOverflows(a, b int64) bool {
	if a == 0 || b == 0 {
		return false
	}
	if (a == math.MinInt64 && b == -1) || (b == math.MinInt64 && a == -1) {
		return true
	}
	r := a * b
	return r/b != a
}

// boundsForAdd computes the interval of a+b over [aMin,aMax] x [bMin,bMax],
// reporting overflow if either extreme combination would overflow (spec
// §4.4: "bound arithmetic that would itself overflow is treated as a
// potential overflow"). Addition is monotonic in both operands, so the
// extremes are the min+min and max+max corners.
func boundsForAdd(aMin, aMax, bMin, bMax int64) (lo, hi int64, overflow bool) {
	if addOverflows(aMin, bMin) || addOverflows(aMax, bMax) {
		return 0, 0, true
	}
	return aMin + bMin, aMax + bMax, false
}

// boundsForSub computes a-b's interval; extremes are min-max and max-min.
func boundsForSub(aMin, aMax, bMin, bMax int64) (lo, hi int64, overflow bool) {
	if subOverflows(aMin, bMax) || subOverflows(aMax, bMin) {
		return 0, 0, true
	}
	return aMin - bMax, aMax - bMin, false
}

// boundsForMul computes a*b's interval by checking all four sign-sensitive
// corners, since multiplication isn't monotonic across sign changes.
func boundsForMul(aMin, aMax, bMin, bMax int64) (lo, hi int64, overflow bool) {
	corners := [4][2]int64{{aMin, bMin}, {aMin, bMax}, {aMax, bMin}, {aMax, bMax}}
	first := true
	for _, c := range corners {
		if mulOverflows(c[0], c[1]) {
			return 0, 0, true
		}
		v := c[0] * c[1]
		if first {
			lo, hi = v, v
			first = false
		} else {
			lo = minI64(lo, v)
			hi = maxI64(hi, v)
		}
	}
	return lo, hi, false
}
