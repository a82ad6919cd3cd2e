// Package snapshot assembles the immutable, fully pre-formatted bundle that
// the PDF exporter and the on-screen views consume. Everything past this
// boundary is display: no arithmetic, no rounding, no relabeling.
package snapshot

import (
	"fmt"
	"time"

	"github.com/packlane/epr-estimator/internal/feecore"
)

// RowKind tags a breakdown row for styling by the renderer.
type RowKind string

const (
	RowHeader   RowKind = "header"
	RowNormal   RowKind = "normal"
	RowSubtotal RowKind = "subtotal"
	RowCredit   RowKind = "credit"
	RowTotal    RowKind = "total"
)

// BreakdownRow is one pre-formatted line of the fee breakdown.
type BreakdownRow struct {
	Label string  `json:"label"`
	Value string  `json:"value,omitempty"`
	Kind  RowKind `json:"kind"`
}

// Bar is one timeline bar. Delta is the only numeric field in the whole
// snapshot, kept solely so renderers can scale bar heights; every shown
// string is already final.
type Bar struct {
	Label        string           `json:"label"`
	Role         feecore.NodeRole `json:"role"`
	Delta        float64          `json:"delta"`
	ValueDisplay string           `json:"value_display,omitempty"`
	DeltaDisplay string           `json:"delta_display,omitempty"`
}

// TimelineSection is empty (no bars) when the fee had no adjustments — a
// flat fee has no story to visualize.
type TimelineSection struct {
	Bars           []Bar   `json:"bars"`
	DeltaMagnitude float64 `json:"delta_magnitude"`
}

type MetaLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Metadata is the program context the caller supplies to Build.
type Metadata struct {
	Jurisdiction string
	ProgramName  string
	// AuthorityText is the legal/authority markdown shown at the bottom
	// of the export.
	AuthorityText string
	GeneratedAt   time.Time
}

// PdfSnapshot is the single input of the export path. Built once per
// calculation result, never mutated afterwards.
type PdfSnapshot struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`

	// Raw identifiers kept for filename derivation only, never displayed.
	Jurisdiction string `json:"jurisdiction"`
	MaterialName string `json:"material_name"`

	Meta []MetaLine `json:"meta"`

	FinalPayableDisplay string `json:"final_payable_display"`

	Breakdown []BreakdownRow  `json:"breakdown"`
	Timeline  TimelineSection `json:"timeline"`

	Explanations  []string `json:"explanations"`
	AuthorityText string   `json:"authority_text,omitempty"`
}

// Build assembles the snapshot from one calculation result. The displayed
// rate is always resolvedRate from the rate resolver: the response's own
// echoed rate field has been observed stale, zero, or inconsistent in
// production and must never reach a renderer.
func Build(result feecore.CalculationResponse, resolvedRate float64, groupName string, meta Metadata) PdfSnapshot {
	v := feecore.Derive(result)

	snap := PdfSnapshot{
		Title:               "EPR Fee Estimate",
		Subtitle:            meta.ProgramName,
		Jurisdiction:        meta.Jurisdiction,
		MaterialName:        groupName,
		FinalPayableDisplay: feecore.FormatCurrency(v.FinalPayable),
		Breakdown:           breakdownRows(v, resolvedRate, result.WeightLbs),
		Timeline:            timelineSection(v),
		Explanations:        explanations(v),
		AuthorityText:       meta.AuthorityText,
	}

	snap.Meta = []MetaLine{
		{Label: "Jurisdiction", Value: meta.Jurisdiction},
		{Label: "Material", Value: groupName},
		{Label: "Prepared", Value: meta.GeneratedAt.Format("January 2, 2006")},
	}
	return snap
}

// breakdownRows emits the canonical row sequence: rate, weight, base, each
// adjustment layer as header/delta/subtotal, the credit when nonzero, then
// the final total.
func breakdownRows(v feecore.DerivedValues, resolvedRate, weightLbs float64) []BreakdownRow {
	rows := []BreakdownRow{
		{Label: "Base rate per lb", Value: feecore.FormatRate(resolvedRate), Kind: RowNormal},
		{Label: "Reported weight", Value: feecore.FormatWeight(weightLbs), Kind: RowNormal},
		{Label: "Base dues", Value: feecore.FormatCurrency(v.Base), Kind: RowSubtotal},

		{Label: fmt.Sprintf("Eco-modulation bonus (%s of base)", feecore.FormatPercent(v.EcoPercent)), Kind: RowHeader},
		{Label: "Adjustment", Value: feecore.FormatSignedCurrency(-v.EcoDelta), Kind: RowNormal},
		{Label: "Subtotal after eco-modulation", Value: feecore.FormatCurrency(v.AfterEco), Kind: RowSubtotal},

		{Label: fmt.Sprintf("LCA bonus (%s of base)", feecore.FormatPercent(v.LCAPercent)), Kind: RowHeader},
		{Label: "Adjustment", Value: feecore.FormatSignedCurrency(-v.LCADelta), Kind: RowNormal},
		{Label: "Subtotal after LCA bonus", Value: feecore.FormatCurrency(v.AfterLCA), Kind: RowSubtotal},
	}
	if v.ReuseCredit != 0 {
		rows = append(rows, BreakdownRow{
			Label: "Reuse credit",
			Value: feecore.FormatSignedCurrency(-v.ReuseCredit),
			Kind:  RowCredit,
		})
	}
	return append(rows, BreakdownRow{
		Label: "Final payable",
		Value: feecore.FormatCurrency(v.FinalPayable),
		Kind:  RowTotal,
	})
}

func timelineSection(v feecore.DerivedValues) TimelineSection {
	if v.EcoDelta == 0 && v.LCADelta == 0 && v.ReuseCredit == 0 {
		return TimelineSection{DeltaMagnitude: 1}
	}
	tl := feecore.TimelineFromDerived(v)
	bars := make([]Bar, 0, len(tl.Nodes))
	for _, n := range tl.Nodes {
		bars = append(bars, Bar{
			Label:        n.Label,
			Role:         n.Role,
			Delta:        n.Delta,
			ValueDisplay: n.ValueDisplay,
			DeltaDisplay: n.DeltaDisplay,
		})
	}
	return TimelineSection{Bars: bars, DeltaMagnitude: tl.DeltaMagnitude}
}

func explanations(v feecore.DerivedValues) []string {
	out := []string{
		fmt.Sprintf("Base dues of %s are the reported weight multiplied by the published per-pound rate.", feecore.FormatCurrency(v.Base)),
	}
	if v.EcoDelta != 0 {
		out = append(out, fmt.Sprintf("An eco-modulation bonus of %s of base dues (%s) was applied.",
			feecore.FormatPercent(v.EcoPercent), feecore.FormatSignedCurrency(-v.EcoDelta)))
	}
	if v.LCADelta != 0 {
		out = append(out, fmt.Sprintf("A life-cycle assessment bonus of %s of base dues (%s) was applied. The bonus applies to base dues, not the running subtotal.",
			feecore.FormatPercent(v.LCAPercent), feecore.FormatSignedCurrency(-v.LCADelta)))
	}
	if v.ReuseCredit != 0 {
		out = append(out, fmt.Sprintf("A flat reuse credit of %s was subtracted after all percentage adjustments.",
			feecore.FormatCurrency(v.ReuseCredit)))
	}
	if v.Floored {
		out = append(out, "Credits exceeded the adjusted dues; the final payable is floored at $0.00.")
	}
	return out
}
