package feecore

import "math"

// Display labels for the derived adjustment layers, in application order.
const (
	ecoLayerLabel    = "Eco-modulation bonus"
	lcaLayerLabel    = "LCA bonus"
	reuseCreditLabel = "Reuse credit"
)

// TimelineFromSteps projects the remote's ordered adjustment list into the
// uniform start/delta/final node sequence. Returns nil for an empty list.
//
// The first step becomes the start node under the canonical base label, not
// whatever the remote called it, so timelines read the same across
// jurisdictions. The step flagged final — or the last step, whichever comes
// first — becomes the final node; steps past a final flag are ignored.
// Running totals are used verbatim: this builder does no accumulation, so a
// remote rounding quirk in the deltas can never leak into the endpoint
// values.
func TimelineFromSteps(steps []TimelineStep) *Timeline {
	if len(steps) == 0 {
		return nil
	}

	finalIdx := len(steps) - 1
	for i, s := range steps {
		if s.IsFinal {
			finalIdx = i
			break
		}
	}

	first := steps[0]
	nodes := []TimelineNode{{
		Label:        StartLabel,
		Role:         NodeStart,
		Value:        first.RunningTotal,
		ValueDisplay: FormatCurrency(first.RunningTotal),
	}}
	// finalIdx can be 0 for a one-step list or a first step flagged final;
	// the timeline then collapses to a start and final node sharing that
	// step's running total.
	if finalIdx >= 1 {
		for _, s := range steps[1:finalIdx] {
			if s.Amount == 0 {
				continue
			}
			nodes = append(nodes, TimelineNode{
				Label:        s.Label,
				Role:         NodeDelta,
				Delta:        s.Amount,
				DeltaDisplay: FormatSignedCurrency(s.Amount),
			})
		}
	}
	last := steps[finalIdx]
	nodes = append(nodes, TimelineNode{
		Label:        FinalLabel,
		Role:         NodeFinal,
		Value:        last.RunningTotal,
		ValueDisplay: FormatCurrency(last.RunningTotal),
	})

	return &Timeline{Nodes: nodes, DeltaMagnitude: deltaMagnitude(nodes)}
}

// TimelineFromDerived builds the same node structure directly from the
// derived decomposition, omitting zero layers. The final node's value is
// DerivedValues.FinalPayable itself, never a re-summation of the deltas.
func TimelineFromDerived(v DerivedValues) *Timeline {
	nodes := []TimelineNode{{
		Label:        StartLabel,
		Role:         NodeStart,
		Value:        v.Base,
		ValueDisplay: FormatCurrency(v.Base),
	}}
	for _, layer := range []struct {
		label string
		delta float64
	}{
		{ecoLayerLabel, v.EcoDelta},
		{lcaLayerLabel, v.LCADelta},
		{reuseCreditLabel, v.ReuseCredit},
	} {
		if layer.delta == 0 {
			continue
		}
		nodes = append(nodes, TimelineNode{
			Label:        layer.label,
			Role:         NodeDelta,
			Delta:        -layer.delta,
			DeltaDisplay: FormatSignedCurrency(-layer.delta),
		})
	}
	nodes = append(nodes, TimelineNode{
		Label:        FinalLabel,
		Role:         NodeFinal,
		Value:        v.FinalPayable,
		ValueDisplay: FormatCurrency(v.FinalPayable),
	})

	return &Timeline{Nodes: nodes, DeltaMagnitude: deltaMagnitude(nodes)}
}

// deltaMagnitude is the bar-scaling denominator: the largest absolute delta,
// floored at 1 so consumers never divide by zero.
func deltaMagnitude(nodes []TimelineNode) float64 {
	mag := 1.0
	for _, n := range nodes {
		if n.Role == NodeDelta {
			mag = math.Max(mag, math.Abs(n.Delta))
		}
	}
	return mag
}
