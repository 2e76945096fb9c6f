package smoother

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/integrate/quad"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestNewUnknownFamily(t *testing.T) {
	if _, err := New("NOT_A_FAMILY", 40, 0); err == nil {
		t.Fatal("expected error for unknown family")
	}
}

func TestNewBadFreq(t *testing.T) {
	if _, err := New("DFAF05", 0, 0); err == nil {
		t.Fatal("expected error for non-positive frequency")
	}
	if _, err := New("DFAF05", -1, 0); err == nil {
		t.Fatal("expected error for negative frequency")
	}
}

func TestNewBadDamping(t *testing.T) {
	if _, err := New("DFAF05", 40, -0.1); err == nil {
		t.Fatal("expected error for negative damping")
	}
	if _, err := New(Compact, 40, 1.5); err == nil {
		t.Fatal("expected error for damping > 1")
	}
}

// TestConstantPreservation verifies invariant 1: every catalog kernel
// integrates to 1 over its support, so convolving a constant
// trajectory reproduces the constant.
//
// Shortest is excluded: its catalog constants (a0=0.2183076974181258,
// a2=2.154923092254376, reproduced bit-for-bit from
// init_2ord_shortest in integrate.c per spec's bit-for-bit mandate)
// integrate to 2*a0 + (2/3)*a2 ≈ 1.8732 over [-h,h], not 1 — a
// property of those two constants alone, independent of h or f. See
// DESIGN.md for the analysis; asserting the invariant for this family
// would be asserting something false of the reference coefficients.
func TestConstantPreservation(t *testing.T) {
	families := []string{"SIFP05", "SIAF05", "DFSF05", "DFAF05", "DFAF02", "DFAF01", AllPass}
	for _, fam := range families {
		k, err := New(fam, 50, 0.1)
		if err != nil {
			t.Fatalf("%s: %v", fam, err)
		}
		got := k.Poly().Integrate(-k.H, k.H)
		if !almostEqual(got, 1.0, 1e-9) {
			t.Errorf("%s: integral over support = %v, want 1", fam, got)
		}
	}
}

func TestCompactIntegratesToOne(t *testing.T) {
	for _, zeta := range []float64{0, 0.05, 0.1, 0.2} {
		k, err := New(Compact, 45, zeta)
		if err != nil {
			t.Fatalf("zeta=%v: %v", zeta, err)
		}
		got := k.Poly().Integrate(-k.H, k.H)
		if !almostEqual(got, 1.0, 1e-9) {
			t.Errorf("zeta=%v: integral = %v, want 1", zeta, got)
		}
	}
}

// TestVibrationRejection verifies testable property 3: convolving a
// target-frequency oscillation with the kernel for family F leaves a
// residual amplitude within F's stated tolerance, across zeta in
// [0, 0.2]. The residual is the kernel's own frequency response at
// the oscillation's complex frequency s: |W(s)| where
// W(s) = integral w(tau)*e^(-s*tau) dtau over the kernel's support.
// scurve.Poly's antiderivative machinery only covers polynomial
// integrands, not exponential/trigonometric ones, so W(s)'s real and
// imaginary parts are evaluated here via the same gonum quadrature
// TestAgainstQuadrature already uses, rather than by adding a
// closed-form trig antiderivative the production path has no other
// use for.
//
// The seven zeta-independent families tested here (the six with a documented
// vibration-tolerance percentage, plus AllPass) don't vary their
// coefficients with zeta at all, so for them s = i*2*pi*f (a plain
// undamped sinusoid, matching spec.md's literal p(x) = sin(2*pi*f*x))
// and the "across zeta in [0, 0.2]" clause holds trivially: the
// residual doesn't depend on zeta because the kernel doesn't.
//
// Compact is the one family that does vary with zeta (its c1 term
// "encodes damped-oscillator asymmetry" per spec.md's own wording,
// and spec.md separately describes the catalog's general purpose as
// suppressing "a zeta-damped oscillation at f"): it is checked against
// the zeta-matched damped oscillator s = zeta*omega + i*omega*sqrt(1-zeta^2),
// the complex frequency its c1 correction is built to cancel. At
// zeta=0 this reduces to the same plain-sine case as the other
// families (and to AllPass's own construction: Compact's h and c2
// formulas collapse to AllPass's exactly when zeta=0).
//
// Shortest is excluded from this test for the same reason it's
// excluded from TestConstantPreservation: its catalog coefficients
// don't null (or even unit-integrate) under either convention tried,
// so any tolerance asserted for it here would either be vacuous or
// false. See DESIGN.md.
//
// Tolerances are the vibration-tolerance percentages integrate.c's
// own per-family init comments document (init_sifp_05/init_siaf_05/
// init_dfsf_05/init_dfaf_05: 5%; init_dfaf_02: 2%; init_dfaf_01: 1%).
// AllPass and Compact carry no documented percentage ("reducing
// vibrations to 0" in the C comments) so they're checked against the
// loosest of the three classes the spec names (5%), comfortably above
// their measured worst case (Compact at zeta=0.2 residuals at
// roughly 3%). A small epsilon is added to each bound: SIFP05 and
// DFSF05 are designed to sit essentially exactly at their 5% bound
// (their measured residual differs from 0.05 only in the 11th
// decimal place), so a bare "<=" comparison would be one quadrature
// rounding error away from flaking.
func TestVibrationRejection(t *testing.T) {
	const epsilon = 1e-6
	tolerances := map[string]float64{
		"SIFP05": 0.05,
		"SIAF05": 0.05,
		"DFSF05": 0.05,
		"DFAF05": 0.05,
		"DFAF02": 0.02,
		"DFAF01": 0.01,
		AllPass:  0.05,
	}
	const f = 50.0
	zetas := []float64{0, 0.05, 0.1, 0.2}

	// residualAt returns |W(s)| for s = zeta*omega + i*sqrt(1-zeta^2)*omega,
	// the kernel's frequency response at the complex frequency of a
	// damped oscillation e^(-zeta*omega*tau)*sin(omega*sqrt(1-zeta^2)*tau).
	// zeta=0 collapses this to the plain undamped sine case.
	residualAt := func(w func(float64) float64, h, f, zeta float64) float64 {
		omega := 2 * math.Pi * f
		wd := omega * math.Sqrt(1-zeta*zeta)
		re := quad.Fixed(func(tau float64) float64 {
			return w(tau) * math.Exp(-zeta*omega*tau) * math.Cos(wd*tau)
		}, -h, h, 128, quad.Legendre{}, 0)
		im := quad.Fixed(func(tau float64) float64 {
			return -w(tau) * math.Exp(-zeta*omega*tau) * math.Sin(wd*tau)
		}, -h, h, 128, quad.Legendre{}, 0)
		return math.Hypot(re, im)
	}

	for fam, tol := range tolerances {
		k, err := New(fam, f, 0)
		if err != nil {
			t.Fatalf("%s: %v", fam, err)
		}
		w := k.Poly()
		for _, zeta := range zetas {
			residual := residualAt(w.Eval, k.H, f, 0)
			if residual > tol+epsilon {
				t.Errorf("%s zeta=%v: residual amplitude = %v, want <= %v", fam, zeta, residual, tol)
			}
		}
	}

	for _, zeta := range zetas {
		k, err := New(Compact, f, zeta)
		if err != nil {
			t.Fatalf("compact zeta=%v: %v", zeta, err)
		}
		w := k.Poly()
		residual := residualAt(w.Eval, k.H, f, zeta)
		if residual > 0.05+epsilon {
			t.Errorf("compact zeta=%v: residual amplitude = %v, want <= 0.05", zeta, residual)
		}
	}
}

func TestHalfSmoothTimeMatchesKernel(t *testing.T) {
	h, err := HalfSmoothTime("DFAF05", 40, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	k, _ := New("DFAF05", 40, 0.1)
	if !almostEqual(h, k.H, 1e-15) {
		t.Fatalf("HalfSmoothTime = %v, want %v", h, k.H)
	}
}
