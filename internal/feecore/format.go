package feecore

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RatePlaceholder is the display form of an unresolved rate. It must stay
// visually distinct from a real $0.0000 — the dash is the signal that no
// valid rate exists yet.
const RatePlaceholder = "—"

var display = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders a currency amount with two decimals and locale
// grouping. Non-finite input renders as the zero string; no formatter in
// this package ever emits "NaN" or "undefined" text.
func FormatCurrency(v float64) string {
	if !isFinite(v) {
		v = 0
	}
	return display.Sprintf("$%.2f", v)
}

// FormatSignedCurrency renders a delta with an explicit sign, for timeline
// and breakdown adjustment rows.
func FormatSignedCurrency(v float64) string {
	if !isFinite(v) {
		v = 0
	}
	if v < 0 {
		return display.Sprintf("-$%.2f", -v)
	}
	return display.Sprintf("+$%.2f", v)
}

// FormatRate renders a per-pound rate at four decimals. Zero, negative, and
// non-finite rates render as the placeholder dash.
func FormatRate(v float64) string {
	if !isFinite(v) || v <= 0 {
		return RatePlaceholder
	}
	return display.Sprintf("$%.4f", v)
}

// FormatPercent renders a decimal fraction as a percentage: whole-number
// form when exact, one decimal otherwise. 0.10 -> "10%", 0.125 -> "12.5%".
func FormatPercent(fraction float64) string {
	if !isFinite(fraction) {
		fraction = 0
	}
	// Round to one decimal first so 0.1*100 floating noise still reads
	// as a whole 10%.
	pct := math.Round(fraction*1000) / 10
	if pct == math.Trunc(pct) {
		return display.Sprintf("%.0f%%", pct)
	}
	return display.Sprintf("%.1f%%", pct)
}

// FormatWeight renders a weight in pounds with locale grouping.
func FormatWeight(lbs float64) string {
	if !isFinite(lbs) {
		lbs = 0
	}
	if lbs == math.Trunc(lbs) {
		return display.Sprintf("%.0f lbs", lbs)
	}
	return display.Sprintf("%.1f lbs", lbs)
}
