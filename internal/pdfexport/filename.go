package pdfexport

import (
	"fmt"
	"strings"
	"time"
)

// Filename derives the export filename:
// {prefix}_{jurisdiction}_{sanitized-material}_{YYYY-MM-DD}.pdf
func Filename(prefix, jurisdiction, material string, day time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s.pdf",
		prefix, jurisdiction, sanitizeMaterial(material), day.Format("2006-01-02"))
}

// sanitizeMaterial lowercases and collapses anything outside [a-z0-9] into
// single hyphens so group names like "Paper & Cardboard" stay filesystem-
// and header-safe.
func sanitizeMaterial(material string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(material)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "material"
	}
	return out
}
