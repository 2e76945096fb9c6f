package smoother

import "github.com/nonanon1/klipper-smoothcore/pkg/scurve"

// IntegrateWeighted computes
//
//	I = ∫[start,end] (p0 + s(τ)) · w(τ + toff) dτ
//
// choosing between the two algebraically-equivalent expansions
// described in spec §4.3 to avoid catastrophic cancellation: when
// toff² ≤ H² the kernel is expanded around the move (Expansion A);
// otherwise the progress curve is expanded around the window
// (Expansion B). The partition is load-bearing and must not be
// replaced by either branch alone (spec §9).
//
// Both branches reduce to the same general construction: represent
// whichever side gets shifted as a scurve.Poly, shift it with
// Poly.Offset, and sum each resulting coefficient against the
// matching antiderivative of the other side. This generalizes the
// narrower quadratic-only integrate_weighted in integrate.c to the
// full degree-6 S-curve, resolving the catalog's "richest variant"
// requirement (DESIGN.md Open Question decision) instead of limiting
// higher-order kernels to trapezoid-only segments.
func (k *Kernel) IntegrateWeighted(p0 float64, s scurve.Poly, start, end, toff float64) float64 {
	return IntegrateWeightedPoly(k.Poly(), k.Hsq, p0, s, start, end, toff)
}

// IntegrateWeightedPoly is the weight-agnostic core of IntegrateWeighted:
// it computes
//
//	I = ∫[start,end] (p0 + s(τ)) · w(τ + toff) dτ
//
// for any weight polynomial w and its own valid-window half-width
// (via hsq = h²), choosing Expansion A or B by the same toff² vs hsq
// partition. Factored out so other windowed convolutions over the
// same move/S-curve shape (pkg/padvance's triangular pressure-advance
// window) can reuse the identical numerically-stable machinery
// instead of re-deriving it against a different weight shape.
func IntegrateWeightedPoly(w scurve.Poly, hsq, p0 float64, s scurve.Poly, start, end, toff float64) float64 {
	if toff*toff <= hsq {
		return expandW(w, p0, s, start, end, toff)
	}
	return expandS(w, p0, s, start, end, toff)
}

// expandW is Expansion A: expand w around the move by substituting
// u = τ+toff and re-expressing w(u) as a polynomial in τ, then
// integrate termwise against s via TnAntiderivative.
func expandW(w scurve.Poly, p0 float64, s scurve.Poly, start, end, toff float64) float64 {
	d0 := w.Offset(toff)
	w.C0 = d0 // reconstruct the full shifted kernel polynomial, in τ

	result := p0 * w.Integrate(start, end)
	coeffs := w.Coeffs()
	for j, wj := range coeffs {
		if wj == 0 {
			continue
		}
		result += wj * (s.TnAntiderivative(j, end) - s.TnAntiderivative(j, start))
	}
	return result
}

// expandS is Expansion B: expand s around the window by shifting s
// to be centred at the window origin, folding its constant term into
// p0, then integrate each remaining coefficient against the weight's
// own antiderivative (the "iwtn" closed form).
func expandS(w scurve.Poly, p0 float64, s scurve.Poly, start, end, toff float64) float64 {
	sShift := s
	d0 := sShift.Offset(-toff)
	p0 += d0

	ustart, uend := start+toff, end+toff

	result := p0 * (w.TnAntiderivative(0, uend) - w.TnAntiderivative(0, ustart))
	coeffs := sShift.Coeffs()
	for j, sj := range coeffs {
		if sj == 0 {
			continue
		}
		result += sj * (w.TnAntiderivative(j, uend) - w.TnAntiderivative(j, ustart))
	}
	return result
}
