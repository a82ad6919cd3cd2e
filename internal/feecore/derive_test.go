package feecore

import (
	"math"
	"testing"
)

func diff(a, b float64) float64 { return math.Abs(a - b) }

func TestDeriveLayerOrderInvariant(t *testing.T) {
	v := Derive(CalculationResponse{
		BaseAmount:           100,
		EcoModulationPercent: 0.10,
		LCABonusPercent:      0.05,
		ReuseCreditAmount:    2,
	})
	if v.EcoDelta != 10 {
		t.Fatalf("eco delta: got %v want 10", v.EcoDelta)
	}
	if v.AfterEco != 90 {
		t.Fatalf("after eco: got %v want 90", v.AfterEco)
	}
	// The second layer applies to the original base, not the running
	// subtotal: 100 * 0.05, never 90 * 0.05.
	if v.LCADelta != 5 {
		t.Fatalf("lca delta: got %v want 5", v.LCADelta)
	}
	if v.AfterLCA != 85 {
		t.Fatalf("after lca: got %v want 85", v.AfterLCA)
	}
	if v.BeforeFloor != 83 || v.FinalPayable != 83 {
		t.Fatalf("final: got %v/%v want 83/83", v.BeforeFloor, v.FinalPayable)
	}
	if v.Floored {
		t.Fatal("floor must not report for a positive final")
	}
}

func TestDeriveFloorsAtZero(t *testing.T) {
	v := Derive(CalculationResponse{
		BaseAmount:        10,
		ReuseCreditAmount: 25,
	})
	if v.BeforeFloor != -15 {
		t.Fatalf("before floor: got %v want -15", v.BeforeFloor)
	}
	if v.FinalPayable != 0 {
		t.Fatalf("final payable must floor at exactly 0, got %v", v.FinalPayable)
	}
	if !v.Floored {
		t.Fatal("expected floor flag")
	}
}

func TestDeriveIntermediateSubtotalsNotFloored(t *testing.T) {
	// Only the end result is clamped; intermediates keep textbook values.
	v := Derive(CalculationResponse{
		BaseAmount:           100,
		EcoModulationPercent: 0.80,
		LCABonusPercent:      0.50,
	})
	if v.AfterLCA != -30 {
		t.Fatalf("intermediate subtotal must stay unclamped, got %v", v.AfterLCA)
	}
	if v.FinalPayable != 0 {
		t.Fatalf("final: got %v want 0", v.FinalPayable)
	}
}

func TestDeriveIsTotal(t *testing.T) {
	v := Derive(CalculationResponse{})
	if v.FinalPayable != 0 || v.Base != 0 {
		t.Fatalf("empty response must derive zeros, got %+v", v)
	}

	v = Derive(CalculationResponse{
		BaseAmount:           math.NaN(),
		EcoModulationPercent: math.Inf(1),
	})
	if v.Base != 0 || v.EcoDelta != 0 || v.FinalPayable != 0 {
		t.Fatalf("non-finite fields must be treated as zero, got %+v", v)
	}
}

func TestDeriveIgnoresRemoteFinalPayable(t *testing.T) {
	// A divergent remote total must not leak into the derivation.
	v := Derive(CalculationResponse{
		BaseAmount:           13.40,
		EcoModulationPercent: 0.10,
		LCABonusPercent:      0.05,
		FinalPayable:         99.99,
	})
	if diff(v.FinalPayable, 11.39) > 0.0001 {
		t.Fatalf("final payable: got %v want 11.39", v.FinalPayable)
	}
}
