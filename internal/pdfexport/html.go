package pdfexport

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/packlane/epr-estimator/internal/snapshot"
)

const barMaxHeightPx = 96

// BuildHTML lays out the snapshot as a print-ready HTML document. The only
// numeric work allowed here is scaling bar heights against the snapshot's
// delta magnitude; all displayed text is copied through verbatim.
func BuildHTML(snap snapshot.PdfSnapshot, styleCSS string) (string, error) {
	var b strings.Builder

	b.WriteString("<!doctype html><html><head><meta charset='utf-8'><title>")
	b.WriteString(html.EscapeString(snap.Title))
	b.WriteString("</title><style>")
	b.WriteString(styleCSS)
	b.WriteString("\nhtml,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;} " +
		"body{background:#fff !important;padding:0.6rem;font-family:Georgia,serif;color:#1c1917;} " +
		".estimate-wrap{max-width:760px;margin:0 auto;} " +
		".estimate-header{border-bottom:3px solid #14532d;padding-bottom:0.5rem;margin-bottom:0.75rem;} " +
		".estimate-meta{color:#44403c;font-size:0.85rem;} .estimate-meta strong{color:#1c1917;} " +
		".final-callout{background:#f0fdf4 !important;border:1px solid #bbf7d0 !important;padding:0.5rem 0.75rem;font-size:1.25rem;font-weight:700;} " +
		".breakdown{width:100%;border-collapse:collapse;font-size:0.85rem;margin:0.75rem 0;} " +
		".breakdown td{border-bottom:1px solid #e7e5e4;padding:0.3rem 0.45rem;} " +
		".breakdown td.value{text-align:right;font-variant-numeric:tabular-nums;} " +
		".row-header td{background:#f5f5f4 !important;font-weight:700;} " +
		".row-subtotal td{border-bottom:2px solid #a8a29e;} " +
		".row-credit td{color:#166534;} " +
		".row-total td{font-weight:700;font-size:1rem;border-bottom:3px double #1c1917;} " +
		".timeline{display:flex;align-items:flex-end;gap:0.75rem;margin:1rem 0;} " +
		".timeline .bar{background:#14532d !important;width:56px;} " +
		".timeline .bar.delta{background:#ca8a04 !important;} " +
		".timeline figure{margin:0;text-align:center;font-size:0.7rem;} " +
		".explanations{font-size:0.85rem;} " +
		".authority{border-top:1px solid #d6d3d1;margin-top:1rem;padding-top:0.5rem;font-size:0.75rem;color:#57534e;} " +
		"@media print{ @page{size:letter;margin:12mm;} body{padding:0;} }" +
		"</style></head><body><div class='estimate-wrap'>")

	b.WriteString("<div class='estimate-header'><h1>" + html.EscapeString(snap.Title) + "</h1>")
	if snap.Subtitle != "" {
		b.WriteString("<div>" + html.EscapeString(snap.Subtitle) + "</div>")
	}
	b.WriteString("<div class='estimate-meta'>")
	for _, m := range snap.Meta {
		fmt.Fprintf(&b, "<div><strong>%s:</strong> %s</div>", html.EscapeString(m.Label), html.EscapeString(m.Value))
	}
	b.WriteString("</div></div>")

	b.WriteString("<div class='final-callout'>Final payable: " + html.EscapeString(snap.FinalPayableDisplay) + "</div>")

	b.WriteString("<table class='breakdown'>")
	for _, row := range snap.Breakdown {
		fmt.Fprintf(&b, "<tr class='row-%s'><td>%s</td><td class='value'>%s</td></tr>",
			row.Kind, html.EscapeString(row.Label), html.EscapeString(row.Value))
	}
	b.WriteString("</table>")

	if len(snap.Timeline.Bars) > 0 {
		b.WriteString("<h2>Adjustment timeline</h2><div class='timeline'>")
		for _, bar := range snap.Timeline.Bars {
			label := bar.ValueDisplay
			class := "bar"
			if bar.Role == "delta" {
				label = bar.DeltaDisplay
				class = "bar delta"
			}
			fmt.Fprintf(&b, "<figure><div class='%s' style='height:%dpx'></div><figcaption>%s<br>%s</figcaption></figure>",
				class, barHeight(bar, snap.Timeline.DeltaMagnitude), html.EscapeString(bar.Label), html.EscapeString(label))
		}
		b.WriteString("</div>")
	}

	if len(snap.Explanations) > 0 {
		b.WriteString("<div class='explanations'><h2>How this estimate was computed</h2>")
		for _, p := range snap.Explanations {
			b.WriteString("<p>" + html.EscapeString(p) + "</p>")
		}
		b.WriteString("</div>")
	}

	if strings.TrimSpace(snap.AuthorityText) != "" {
		var authority strings.Builder
		md := goldmark.New(goldmark.WithExtensions(extension.GFM))
		if err := md.Convert([]byte(snap.AuthorityText), &authority); err != nil {
			return "", fmt.Errorf("authority markdown convert: %w", err)
		}
		b.WriteString("<div class='authority'>" + authority.String() + "</div>")
	}

	b.WriteString("</div></body></html>")
	return b.String(), nil
}

// barHeight scales a bar against the snapshot's delta magnitude. Start and
// final bars render at full height; delta bars are proportional to their
// share of the largest delta. Magnitude is guaranteed >= 1 upstream, so the
// division here is safe.
func barHeight(bar snapshot.Bar, magnitude float64) int {
	if bar.Role != "delta" {
		return barMaxHeightPx
	}
	h := int(math.Round(math.Abs(bar.Delta) / magnitude * barMaxHeightPx))
	if h < 4 {
		h = 4
	}
	return h
}
