package llm

import (
	"strings"

	"github.com/joseph-ayodele/hr-ingest/constants"
)

const truncatedMarker = "\n…(truncated)"

// BuildSystemPrompt enumerates every employee field, its type and the closed
// sets, and asks for a bare JSON array.
func BuildSystemPrompt() string {
	parts := []string{
		"You are an HR data extraction assistant. Extract every employee record found in the document text.",
		"Return ONLY a JSON array of objects. No prose, no markdown, no code fences.",
		"Each object may contain these fields:",
		"emp_code (string, employee code or ID),",
		"first_name (string, required),",
		"last_name (string),",
		"email (string),",
		"phone (string, digits with optional leading +),",
		"department (string, one of: " + strings.Join(constants.Departments(), ", ") + "),",
		"designation (string, job title),",
		"location (string, office or city),",
		"doj (string, date of joining as YYYY-MM-DD),",
		"status (string, one of: " + strings.Join(constants.EmployeeStatuses(), ", ") + "),",
		"monthly_ctc (number, monthly cost to company without currency symbols).",
		"If a field is not present, omit it. Never invent values.",
		"If the document contains no employees, return [].",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the file name and the document text, truncated to
// maxChars runes when maxChars > 0.
func BuildUserPrompt(req ExtractRequest, maxChars int) string {
	var b strings.Builder
	if name := strings.TrimSpace(req.FileName); name != "" {
		b.WriteString("File name: ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	if f := strings.TrimSpace(req.Format); f != "" {
		b.WriteString("Format: ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString("\nDocument text:\n")
	b.WriteString(Truncate(strings.TrimSpace(req.Text), maxChars))
	return b.String()
}

// Truncate cuts s to at most maxChars runes and marks the cut.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars]) + truncatedMarker
}
