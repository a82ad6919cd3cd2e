package estimator

// Minimal program metadata. Labels and legal text are deployment content;
// unknown jurisdictions get a generic fallback rather than an error.

var programNames = map[string]string{
	"co": "Colorado Producer Responsibility Program",
	"ca": "California Covered Material Program",
	"or": "Oregon Recycling Modernization Program",
}

var authorityTexts = map[string]string{
	"co": "Estimates reflect rates published by the designated producer responsibility organization under the **Producer Responsibility Program for Statewide Recycling Act**. The program operator's invoice is the authoritative amount due.",
	"ca": "Estimates reflect schedules published under **SB 54**. The program operator's invoice is the authoritative amount due.",
}

func programName(jurisdiction string) string {
	if name, ok := programNames[jurisdiction]; ok {
		return name
	}
	return "Extended Producer Responsibility Program"
}

func authorityText(jurisdiction string) string {
	if text, ok := authorityTexts[jurisdiction]; ok {
		return text
	}
	return "This tool produces estimates only. The program operator's invoice is the authoritative amount due."
}
