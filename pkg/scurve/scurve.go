// Package scurve implements the piecewise-polynomial progress-curve
// evaluator used to describe a move's scalar progress as a function of
// local time.
//
// Grounded on the coefficient layout and call sites visible in
// kin_smooth_axis.c (scurve_copy_scaled) and kin_extruder.c
// (scurve_integrate, scurve_integrate_t, scurve_diff,
// scurve_deriv_t_integrate) in the original chelper sources; the
// polynomial's degree-6 shape and the named operations come from
// spec §4.2.
package scurve

// Poly is a degree-6 polynomial in local time τ, Σ Ck·τ^k for k=0..6.
// A move's native S-curve always has C0 == 0 (progress is zero at
// τ=0); C0 becomes meaningful only in derived polynomials produced by
// Offset and Diff.
type Poly struct {
	C0, C1, C2, C3, C4, C5, C6 float64
}

func (p Poly) coeffs() [7]float64 {
	return [7]float64{p.C0, p.C1, p.C2, p.C3, p.C4, p.C5, p.C6}
}

// Coeffs returns the seven coefficients C0..C6, indexed by power.
func (p Poly) Coeffs() [7]float64 { return p.coeffs() }

// At returns the coefficient of τ^k, or 0 for k outside [0,6].
func (p Poly) At(k int) float64 {
	if k < 0 || k > 6 {
		return 0
	}
	return p.coeffs()[k]
}

// Eval returns s(τ).
func (p Poly) Eval(tau float64) float64 {
	c := p.coeffs()
	v := c[6]
	for k := 5; k >= 0; k-- {
		v = v*tau + c[k]
	}
	return v
}

// binom returns the binomial coefficient C(n, k).
func binom(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	result := 1.0
	for i := 0; i < k; i++ {
		result *= float64(n-i) / float64(i+1)
	}
	return result
}

// Offset shifts the polynomial so that it represents s(τ+delta) when
// evaluated in the new variable τ. It mutates the receiver in place
// to hold the non-constant coefficients of the shifted polynomial and
// returns the constant term s(delta), which the caller is responsible
// for folding into the surrounding start position (this is the
// "expand s around the window" step of Expansion B, §4.3).
func (p *Poly) Offset(delta float64) float64 {
	c := p.coeffs()
	var d [7]float64
	for j := 0; j <= 6; j++ {
		var sum float64
		pw := 1.0 // delta^(k-j), built incrementally
		for k := j; k <= 6; k++ {
			if k == j {
				pw = 1.0
			} else {
				pw *= delta
			}
			sum += c[k] * binom(k, j) * pw
		}
		d[j] = sum
	}
	p.C0 = 0
	p.C1, p.C2, p.C3, p.C4, p.C5, p.C6 = d[1], d[2], d[3], d[4], d[5], d[6]
	return d[0]
}

// TnAntiderivative returns the antiderivative of τ^n·s(τ), evaluated
// at τ, with the integration constant fixed at zero.
func (p Poly) TnAntiderivative(n int, tau float64) float64 {
	c := p.coeffs()
	var total float64
	for k := 0; k <= 6; k++ {
		exp := n + k + 1
		total += c[k] / float64(exp) * ipow(tau, exp)
	}
	return total
}

func ipow(x float64, n int) float64 {
	r := 1.0
	for i := 0; i < n; i++ {
		r *= x
	}
	return r
}

// Integrate returns ∫[a,b] s(τ) dτ.
func (p Poly) Integrate(a, b float64) float64 {
	return p.TnAntiderivative(0, b) - p.TnAntiderivative(0, a)
}

// IntegrateT returns ∫[a,b] τ·s(τ) dτ.
func (p Poly) IntegrateT(a, b float64) float64 {
	return p.TnAntiderivative(1, b) - p.TnAntiderivative(1, a)
}

// CopyScaled returns a new polynomial with every coefficient
// multiplied by r, used when projecting an axis-free progress curve
// onto a per-axis direction ratio.
func (p Poly) CopyScaled(r float64) Poly {
	return Poly{
		C0: p.C0 * r, C1: p.C1 * r, C2: p.C2 * r, C3: p.C3 * r,
		C4: p.C4 * r, C5: p.C5 * r, C6: p.C6 * r,
	}
}

// DerivTIntegrate returns the antiderivative of τ^n·s'(τ), evaluated
// at τ, with the integration constant fixed at zero — the closed form
// behind kin_extruder.c's scurve_deriv_t_integrate, used by the
// pressure-advance convolution's velocity-term cross-check.
func (p Poly) DerivTIntegrate(n int, tau float64) float64 {
	return p.Diff().TnAntiderivative(n, tau)
}

// Diff returns the derivative polynomial s'(τ).
func (p Poly) Diff() Poly {
	return Poly{
		C0: p.C1,
		C1: 2 * p.C2,
		C2: 3 * p.C3,
		C3: 4 * p.C4,
		C4: 5 * p.C5,
		C5: 6 * p.C6,
		C6: 0,
	}
}
