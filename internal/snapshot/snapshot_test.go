package snapshot

import (
	"strings"
	"testing"
	"time"

	"github.com/packlane/epr-estimator/internal/feecore"
)

func sampleResult() feecore.CalculationResponse {
	return feecore.CalculationResponse{
		Jurisdiction:         "co",
		GroupKey:             "newspapers",
		WeightLbs:            1000,
		RatePerLb:            0.9999, // stale echoed rate, must never be shown
		BaseAmount:           13.40,
		EcoModulationPercent: 0.10,
		LCABonusPercent:      0.05,
	}
}

func sampleMeta() Metadata {
	return Metadata{
		Jurisdiction:  "co",
		ProgramName:   "Colorado Producer Responsibility Program",
		AuthorityText: "Rates published under **Program Plan 2026**.",
		GeneratedAt:   time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestBuildRatePrecedence(t *testing.T) {
	snap := Build(sampleResult(), 0.0134, "Newspapers", sampleMeta())

	var rateRow *BreakdownRow
	for i := range snap.Breakdown {
		if snap.Breakdown[i].Label == "Base rate per lb" {
			rateRow = &snap.Breakdown[i]
		}
	}
	if rateRow == nil {
		t.Fatal("expected a rate row")
	}
	if rateRow.Value != "$0.0134" {
		t.Fatalf("rate row must show the resolved rate, got %q", rateRow.Value)
	}
	for _, row := range snap.Breakdown {
		if strings.Contains(row.Value, "0.9999") {
			t.Fatalf("echoed response rate leaked into the snapshot: %+v", row)
		}
	}
}

func TestBuildRowOrder(t *testing.T) {
	snap := Build(sampleResult(), 0.0134, "Newspapers", sampleMeta())
	kinds := make([]RowKind, 0, len(snap.Breakdown))
	for _, r := range snap.Breakdown {
		kinds = append(kinds, r.Kind)
	}
	want := []RowKind{
		RowNormal, RowNormal, RowSubtotal,
		RowHeader, RowNormal, RowSubtotal,
		RowHeader, RowNormal, RowSubtotal,
		RowTotal,
	}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d rows, got %d: %v", len(want), len(kinds), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("row %d: got %s want %s", i, kinds[i], want[i])
		}
	}
	last := snap.Breakdown[len(snap.Breakdown)-1]
	if last.Value != "$11.39" {
		t.Fatalf("final row: got %q want $11.39", last.Value)
	}
}

func TestBuildCreditRowOnlyWhenNonzero(t *testing.T) {
	result := sampleResult()
	result.ReuseCreditAmount = 2
	snap := Build(result, 0.0134, "Newspapers", sampleMeta())
	found := false
	for _, r := range snap.Breakdown {
		if r.Kind == RowCredit {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a credit row for a nonzero credit")
	}
}

func TestBuildOmitsTimelineForFlatFee(t *testing.T) {
	result := feecore.CalculationResponse{WeightLbs: 100, BaseAmount: 5}
	snap := Build(result, 0.05, "Glass", sampleMeta())
	if len(snap.Timeline.Bars) != 0 {
		t.Fatalf("flat fee must have no timeline, got %d bars", len(snap.Timeline.Bars))
	}
	if snap.Timeline.DeltaMagnitude != 1 {
		t.Fatalf("magnitude must stay safe for consumers, got %v", snap.Timeline.DeltaMagnitude)
	}
}

func TestBuildTimelineMatchesDerivation(t *testing.T) {
	result := sampleResult()
	snap := Build(result, 0.0134, "Newspapers", sampleMeta())
	if len(snap.Timeline.Bars) != 4 {
		t.Fatalf("expected 4 bars, got %d", len(snap.Timeline.Bars))
	}
	final := snap.Timeline.Bars[len(snap.Timeline.Bars)-1]
	if final.ValueDisplay != snap.FinalPayableDisplay {
		t.Fatalf("timeline final %q diverged from summary %q", final.ValueDisplay, snap.FinalPayableDisplay)
	}
}

func TestBuildEverythingPreFormatted(t *testing.T) {
	snap := Build(sampleResult(), 0.0134, "Newspapers", sampleMeta())
	if snap.FinalPayableDisplay != "$11.39" {
		t.Fatalf("got %q", snap.FinalPayableDisplay)
	}
	for _, m := range snap.Meta {
		if strings.TrimSpace(m.Value) == "" {
			t.Fatalf("empty meta value for %q", m.Label)
		}
	}
	if len(snap.Explanations) == 0 {
		t.Fatal("expected explanation paragraphs")
	}
}
