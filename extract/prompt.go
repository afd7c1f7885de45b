package extract

import (
	"fmt"
	"strings"

	"github.com/fwojciec/schemex"
)

// DefaultSchema is the field list for government scheme pages.
var DefaultSchema = schemex.Schema{
	"Scheme Name",
	"Ministries/Departments",
	"Target Beneficiaries",
	"Eligibility Criteria",
	"Description & Benefits",
	"Application Process",
	"Tags",
}

// DefaultDescriptions explains the default fields to the model.
var DefaultDescriptions = map[string]string{
	"Scheme Name":            "The official name of the scheme",
	"Ministries/Departments": "The ministry or department that runs the scheme",
	"Target Beneficiaries":   "Who the scheme is designed to help",
	"Eligibility Criteria":   "Requirements to qualify for the scheme",
	"Description & Benefits": "What the scheme provides and its benefits",
	"Application Process":    "How to apply for the scheme",
	"Tags":                   "Keywords related to the scheme",
}

// DefaultSynonyms maps canonical fields to the headings and questions that
// portals commonly use for them.
var DefaultSynonyms = map[string][]string{
	"Eligibility Criteria":   {"who can apply", "requirements", "who is eligible", "qualifications"},
	"Application Process":    {"how to apply", "steps to apply", "procedure", "registration"},
	"Description & Benefits": {"what is the scheme about", "details", "benefits", "what you get", "assistance provided"},
	"Target Beneficiaries":   {"who is it for", "beneficiaries", "target group"},
	"Ministries/Departments": {"nodal ministry", "implementing agency", "department"},
}

// UserLeadIn opens every user message.
const UserLeadIn = "Extract the following information from this government scheme webpage content:"

// BuildSystemInstruction returns the system instruction for schema. Fields
// are listed in schema order. Descriptions and synonyms are included for
// fields that have them.
func BuildSystemInstruction(schema schemex.Schema, descriptions map[string]string, synonyms map[string][]string) string {
	var sb strings.Builder
	sb.WriteString("You are an intelligent text extraction specialist. Carefully extract structured information ")
	sb.WriteString("from the provided web page content and return it as JSON.\n\n")
	sb.WriteString("The content comes from government scheme websites. Extract the following information:\n")
	for _, field := range schema {
		if d := descriptions[field]; d != "" {
			fmt.Fprintf(&sb, "- %s: %s\n", field, d)
		} else {
			fmt.Fprintf(&sb, "- %s\n", field)
		}
	}

	sb.WriteString("\nIMPORTANT:\n")
	sb.WriteString("1. Extract exactly ONE scheme per URL\n")
	sb.WriteString("2. Use null for any field you cannot find information about\n")
	sb.WriteString("3. The output MUST be valid JSON with only the extracted data\n")
	sb.WriteString("4. Be concise but thorough, and prefer the page's own wording over paraphrase\n")

	var mapped []string
	for _, field := range schema {
		if phrases := synonyms[field]; len(phrases) > 0 {
			quoted := make([]string, len(phrases))
			for i, p := range phrases {
				quoted[i] = `"` + p + `"`
			}
			mapped = append(mapped, fmt.Sprintf("- %s → %s", strings.Join(quoted, ", "), field))
		}
	}
	if len(mapped) > 0 {
		sb.WriteString("\nPages often label sections with questions or synonyms. Map them to the canonical field:\n")
		sb.WriteString(strings.Join(mapped, "\n"))
		sb.WriteString("\nWhen a section could match several fields, use the most specific one.\n")
	}

	sb.WriteString("\nYour output must follow this exact JSON structure:\n")
	sb.WriteString("{\n  \"" + schemex.RecordsKey + "\": [\n    {\n")
	for i, field := range schema {
		fmt.Fprintf(&sb, "      %q: \"extracted value\"", field)
		if i < len(schema)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("    }\n  ]\n}\n")
	return sb.String()
}

// BuildUserPrompt returns the user message carrying the page text.
func BuildUserPrompt(schema schemex.Schema, url, text string) string {
	var sb strings.Builder
	sb.WriteString(UserLeadIn)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Fields: %s\n", strings.Join(schema, ", "))
	fmt.Fprintf(&sb, "URL: %s\n\n", url)
	sb.WriteString("Page content:\n")
	sb.WriteString(text)
	return sb.String()
}
