package llm

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// SchemaField is one string property of a structured response.
type SchemaField struct {
	Name        string
	Description string
}

// ResponseSchema constrains a completion to a JSON object whose fields are
// all required strings. Providers translate it into their native schema
// format.
type ResponseSchema struct {
	Name   string
	Fields []SchemaField
}

// FieldNames returns the property names in declaration order.
func (s *ResponseSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// jsonSchema renders the schema as a standard JSON Schema object.
func (s *ResponseSchema) jsonSchema() map[string]any {
	props := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		prop := map[string]any{"type": "string"}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		props[f.Name] = prop
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             s.FieldNames(),
		"additionalProperties": false,
	}
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	// Schema, when set, asks the provider for JSON output matching it.
	Schema *ResponseSchema
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}
