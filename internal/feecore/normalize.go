package feecore

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidStateCode rejects empty or blank jurisdiction identifiers. There
// is deliberately no default jurisdiction to fall back to.
var ErrInvalidStateCode = errors.New("invalid state code")

// NormalizeStateCode trims and lowercases a jurisdiction identifier for
// outbound request paths.
func NormalizeStateCode(raw string) (string, error) {
	code := strings.ToLower(strings.TrimSpace(raw))
	if code == "" {
		return "", ErrInvalidStateCode
	}
	return code, nil
}

// Drop records one list item the normalizer skipped and why.
type Drop struct {
	Index  int
	Reason string
}

func (d Drop) String() string {
	return fmt.Sprintf("item %d: %s", d.Index, d.Reason)
}

// Wrapper keys under which different deployments of the materials API nest
// the group list.
var groupListKeys = []string{"groups", "data", "items"}

// NormalizeGroups converts an arbitrary decoded materials payload into
// canonical MaterialGroup records. It accepts a bare array or an object
// wrapping the array under a known key; items may use snake_case or
// camelCase field names and may carry the rate as a string. Malformed items
// are dropped and reported, not fatal — partial data beats total failure.
// An unrecognized top-level shape yields (nil, nil); the caller decides
// whether empty is an error.
//
// Rates are passed through as-is, including zero and negative values:
// validity is the resolver's concern, shape is ours.
func NormalizeGroups(raw any) ([]MaterialGroup, []Drop) {
	list, ok := groupList(raw)
	if !ok {
		return nil, nil
	}

	groups := make([]MaterialGroup, 0, len(list))
	var drops []Drop
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			drops = append(drops, Drop{Index: i, Reason: "not an object"})
			continue
		}
		key := firstString(obj, "group_key", "groupKey", "key")
		if key == "" {
			drops = append(drops, Drop{Index: i, Reason: "missing group key"})
			continue
		}
		name := firstString(obj, "group_name", "groupName", "name")
		if name == "" {
			drops = append(drops, Drop{Index: i, Reason: "missing group name"})
			continue
		}
		rate, ok := firstNumber(obj, "base_rate_per_lb", "baseRatePerLb", "rate_per_lb", "ratePerLb", "rate")
		if !ok {
			drops = append(drops, Drop{Index: i, Reason: "rate is not a finite number"})
			continue
		}
		groups = append(groups, MaterialGroup{
			GroupKey:      key,
			GroupName:     name,
			Status:        firstString(obj, "status"),
			BaseRatePerLb: rate,
		})
	}
	return groups, drops
}

func groupList(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case map[string]any:
		for _, k := range groupListKeys {
			if list, ok := v[k].([]any); ok {
				return list, true
			}
		}
	}
	return nil, false
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// firstNumber returns the first alias that coerces to a finite float.
// String-typed rates are common in one upstream deployment.
func firstNumber(obj map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, present := obj[k]
		if !present {
			continue
		}
		switch n := v.(type) {
		case float64:
			if isFinite(n) {
				return n, true
			}
		case json.Number:
			if f, err := n.Float64(); err == nil && isFinite(f) {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && isFinite(f) {
				return f, true
			}
		}
	}
	return 0, false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
