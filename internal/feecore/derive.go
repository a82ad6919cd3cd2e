package feecore

import "math"

// Derive recomputes the layered fee decomposition from one calculation
// response. It is total: missing or non-finite fields are treated as zero so
// a partially populated response still renders, and it never errors.
//
// The order is fixed and the two percentage layers both apply to the
// original base, not to the running subtotal. They are legally independent
// percentage-of-base adjustments; compounding them against the subtotal
// would change the effective adjustment rate and is a correctness bug, not
// an alternative reading.
//
// Every renderer displays this decomposition. The response's own
// final_payable is never the displayed figure; when the two disagree,
// Derive wins.
func Derive(r CalculationResponse) DerivedValues {
	base := finiteOrZero(r.BaseAmount)
	ecoPct := finiteOrZero(r.EcoModulationPercent)
	lcaPct := finiteOrZero(r.LCABonusPercent)
	credit := finiteOrZero(r.ReuseCreditAmount)

	ecoDelta := base * ecoPct
	afterEco := base - ecoDelta
	lcaDelta := base * lcaPct
	afterLCA := afterEco - lcaDelta
	beforeFloor := afterLCA - credit

	return DerivedValues{
		Base:         base,
		EcoDelta:     ecoDelta,
		AfterEco:     afterEco,
		LCADelta:     lcaDelta,
		AfterLCA:     afterLCA,
		ReuseCredit:  credit,
		BeforeFloor:  beforeFloor,
		FinalPayable: math.Max(0, beforeFloor),
		Floored:      beforeFloor < 0,
		EcoPercent:   ecoPct,
		LCAPercent:   lcaPct,
	}
}

func finiteOrZero(f float64) float64 {
	if !isFinite(f) {
		return 0
	}
	return f
}
