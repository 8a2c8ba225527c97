package llm

import "strings"

// BuildPrompt asks for a single JSON object holding the group's keys plus the
// model's own confidence_scores and gaps.
func BuildPrompt(req ExtractRequest) string {
	var b strings.Builder
	b.WriteString("\nExtract the following fields from the contract text.\n")
	b.WriteString("Return a JSON object with these keys:\n")
	b.WriteString(req.Group.Prompt())
	b.WriteString(".\n")
	b.WriteString("For each field, if data is missing, set its value to null or an empty list/object as appropriate.\n")
	b.WriteString("Also include a 'confidence_scores' object (field: score 0-1), and a 'gaps' array listing missing critical fields.\n")
	b.WriteString("Return ONLY valid JSON. No markdown, no explanations, no backticks.\n")
	b.WriteString("\nContract text:\n")
	b.WriteString(req.ContractText)
	b.WriteString("\n")
	return b.String()
}
