package feecore

import "testing"

func TestNormalizeStateCode(t *testing.T) {
	got, err := NormalizeStateCode("  CO ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "co" {
		t.Fatalf("expected co, got %q", got)
	}
}

func TestNormalizeStateCodeRejectsBlank(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		if _, err := NormalizeStateCode(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestNormalizeGroupsEquivalentShapes(t *testing.T) {
	snake := []any{map[string]any{"group_key": "x", "group_name": "X", "base_rate_per_lb": 0.02}}
	camel := []any{map[string]any{"groupKey": "x", "groupName": "X", "baseRatePerLb": "0.02"}}
	wrapped := map[string]any{"groups": snake}
	wrappedData := map[string]any{"data": snake}
	wrappedItems := map[string]any{"items": snake}

	for name, raw := range map[string]any{
		"snake": snake, "camel": camel,
		"wrapped-groups": wrapped, "wrapped-data": wrappedData, "wrapped-items": wrappedItems,
	} {
		groups, drops := NormalizeGroups(raw)
		if len(drops) != 0 {
			t.Fatalf("%s: unexpected drops: %v", name, drops)
		}
		if len(groups) != 1 {
			t.Fatalf("%s: expected 1 group, got %d", name, len(groups))
		}
		g := groups[0]
		if g.GroupKey != "x" || g.GroupName != "X" || g.BaseRatePerLb != 0.02 {
			t.Fatalf("%s: unexpected group %+v", name, g)
		}
	}
}

func TestNormalizeGroupsDropsMalformedItems(t *testing.T) {
	raw := []any{
		map[string]any{"group_name": "no key", "base_rate_per_lb": 0.02},
		map[string]any{"group_key": "no-name", "base_rate_per_lb": 0.02},
		map[string]any{"group_key": "bad-rate", "group_name": "Bad", "base_rate_per_lb": "not a number"},
		"not an object",
		map[string]any{"group_key": "ok", "group_name": "OK", "rate": "0.5"},
	}
	groups, drops := NormalizeGroups(raw)
	if len(groups) != 1 || groups[0].GroupKey != "ok" {
		t.Fatalf("expected only the valid item to survive, got %+v", groups)
	}
	if len(drops) != 4 {
		t.Fatalf("expected 4 drops, got %d: %v", len(drops), drops)
	}
}

func TestNormalizeGroupsUnknownShapeIsEmpty(t *testing.T) {
	for _, raw := range []any{nil, "nope", 42.0, map[string]any{"payload": "x"}} {
		groups, drops := NormalizeGroups(raw)
		if len(groups) != 0 || len(drops) != 0 {
			t.Fatalf("expected empty result for %v, got %v / %v", raw, groups, drops)
		}
	}
}

func TestNormalizeGroupsKeepsOrderAndDuplicates(t *testing.T) {
	raw := []any{
		map[string]any{"group_key": "b", "group_name": "B", "rate": 0.1},
		map[string]any{"group_key": "a", "group_name": "A", "rate": 0.2},
		map[string]any{"group_key": "b", "group_name": "B again", "rate": 0.3},
	}
	groups, _ := NormalizeGroups(raw)
	if len(groups) != 3 {
		t.Fatalf("expected duplicates preserved, got %d groups", len(groups))
	}
	if groups[0].GroupKey != "b" || groups[1].GroupKey != "a" || groups[2].GroupKey != "b" {
		t.Fatalf("input order not preserved: %+v", groups)
	}
}

func TestNormalizeGroupsPassesThroughNonPositiveRates(t *testing.T) {
	raw := []any{map[string]any{"group_key": "zero", "group_name": "Zero", "rate": 0.0}}
	groups, drops := NormalizeGroups(raw)
	if len(drops) != 0 || len(groups) != 1 {
		t.Fatalf("zero rate should normalize, not drop: %v %v", groups, drops)
	}
	if groups[0].BaseRatePerLb != 0 {
		t.Fatalf("unexpected rate %v", groups[0].BaseRatePerLb)
	}
}
