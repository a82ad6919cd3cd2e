package feecore

import (
	"fmt"
	"strings"
)

// RateError reports an unresolvable material-group rate. It carries the
// offending key and the keys that were available so the failure is
// diagnosable from the error alone.
type RateError struct {
	GroupKey  string
	Available []string
	Reason    string
}

func (e *RateError) Error() string {
	return fmt.Sprintf("rate unresolvable for %q: %s (available: %s)",
		e.GroupKey, e.Reason, strings.Join(e.Available, ", "))
}

// ResolveRate returns the canonical rate for a material-group key.
//
// A rate of exactly zero is indistinguishable from "missing" in the upstream
// data, so zero and negative rates are invalid here. This must never be
// weakened to a zero fallback: a silent $0.0000 rate misprices the fee.
func ResolveRate(groups []MaterialGroup, key string) (float64, error) {
	if strings.TrimSpace(key) == "" {
		return 0, &RateError{GroupKey: key, Available: groupKeys(groups), Reason: "empty group key"}
	}
	if len(groups) == 0 {
		return 0, &RateError{GroupKey: key, Reason: "no groups loaded"}
	}
	for _, g := range groups {
		if g.GroupKey != key {
			continue
		}
		if !isFinite(g.BaseRatePerLb) || g.BaseRatePerLb <= 0 {
			return 0, &RateError{
				GroupKey:  key,
				Available: groupKeys(groups),
				Reason:    fmt.Sprintf("rate %v is not a positive finite number", g.BaseRatePerLb),
			}
		}
		return g.BaseRatePerLb, nil
	}
	return 0, &RateError{GroupKey: key, Available: groupKeys(groups), Reason: "no matching group"}
}

// ResolveRateSafe is the non-erroring projection of ResolveRate for display
// paths, where a missing rate means "not yet available" rather than failure.
func ResolveRateSafe(groups []MaterialGroup, key string) (float64, bool) {
	rate, err := ResolveRate(groups, key)
	if err != nil {
		return 0, false
	}
	return rate, true
}

// HasValidRate reports whether ResolveRate would succeed for key.
func HasValidRate(groups []MaterialGroup, key string) bool {
	_, ok := ResolveRateSafe(groups, key)
	return ok
}

func groupKeys(groups []MaterialGroup) []string {
	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		keys = append(keys, g.GroupKey)
	}
	return keys
}
