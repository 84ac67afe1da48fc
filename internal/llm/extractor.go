package llm

import (
	"fmt"
	"strings"

	"github.com/jonathan/rfp-agent/internal/prompts"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name        string
	Description string
	Fields      []SchemaField
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint shown to the model
	Description string
	Required    bool
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		fmt.Fprintf(&sb, "  \"%s\": %s%s", field.Name, typeHint, requiredHint)
		if field.Description != "" {
			fmt.Fprintf(&sb, " // %s", field.Description)
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract values directly from the text, do not invent figures.\n")
	sb.WriteString("- Use plain numbers without units, currency symbols or thousands separators.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// RFPEntitiesSchema describes the numeric entities pulled from a paint tender.
func RFPEntitiesSchema() ExtractionSchema {
	return ExtractionSchema{
		Name:        "RFPEntities",
		Description: prompts.MustGet("extraction.json", "rfp-entities-system"),
		Fields: []SchemaField{
			{Name: "areas", Type: "[number]", Description: "Areas to be painted in square feet", Required: true},
			{Name: "coverages", Type: "[number]", Description: "Required coverage in sq ft per liter"},
			{Name: "costs", Type: "[number]", Description: "Monetary amounts such as labor fees, in order of appearance"},
			{Name: "dates", Type: "[\"YYYY-MM-DD\"]", Description: "Submission or completion deadlines"},
			{Name: "finishes", Type: "[\"string\"]", Description: "Paint finishes mentioned (Matt, Silk, Satin...)"},
		},
	}
}
