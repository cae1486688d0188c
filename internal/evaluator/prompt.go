package evaluator

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/knoweval/internal/llm"
)

// Field names of the structured response. They are also the JSON keys of
// every archived record.
const (
	FieldWhatsRight      = "whats_right"
	FieldWhatsWrong      = "whats_wrong"
	FieldRecommendations = "recommendations"
)

// Schema is the fixed response schema sent with every evaluation.
var Schema = &llm.ResponseSchema{
	Name: "evaluation_result",
	Fields: []llm.SchemaField{
		{Name: FieldWhatsRight, Description: "Aspects that demonstrate correct understanding."},
		{Name: FieldWhatsWrong, Description: "Misconceptions or errors."},
		{Name: FieldRecommendations, Description: "Specific topics or areas to focus on for improvement."},
	},
}

// Stages are the progress messages shown while an evaluation is in flight.
var Stages = []string{
	"Analyzing content structure...",
	"Identifying key concepts...",
	"Generating detailed feedback...",
	"Finalizing evaluation...",
}

// BuildPrompt composes the instruction sent to the model.
func BuildPrompt(content string, focus Focus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate the following content with focus on %s. %s\n\n", focus, focus.Hint())
	b.WriteString("Provide your feedback in these three clearly separated sections:\n\n")
	b.WriteString("1. What's Right: Highlight the aspects that demonstrate correct understanding.\n")
	b.WriteString("2. What's Wrong: Identify any misconceptions or errors.\n")
	b.WriteString("3. Recommendations: Suggest specific topics or areas to focus on for improvement.\n\n")
	b.WriteString("Content:\n")
	b.WriteString(content)
	return b.String()
}
