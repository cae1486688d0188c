package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ziadkadry99/knoweval/internal/llm"
)

var (
	// ErrUpstream wraps transport and authentication failures from the
	// generation endpoint.
	ErrUpstream = errors.New("upstream error")
	// ErrMalformedResponse means the endpoint answered with something that
	// does not match the response schema.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrUnknownModel is returned for a model outside the configured catalog.
	ErrUnknownModel = errors.New("unknown model")
	// ErrUnknownFocus is returned for a focus outside the fixed set.
	ErrUnknownFocus = errors.New("unknown evaluation focus")
)

// Result is the structured feedback for one evaluation.
type Result struct {
	WhatsRight      string `json:"whats_right"`
	WhatsWrong      string `json:"whats_wrong"`
	Recommendations string `json:"recommendations"`
}

// Empty reports whether all three sections are blank.
func (r Result) Empty() bool {
	return strings.TrimSpace(r.WhatsRight) == "" &&
		strings.TrimSpace(r.WhatsWrong) == "" &&
		strings.TrimSpace(r.Recommendations) == ""
}

// Evaluation is a decoded Result plus the metadata of the call that
// produced it.
type Evaluation struct {
	Result       Result
	Raw          string
	Provider     string
	Model        string
	Focus        Focus
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// Evaluator sends notes to a provider for critique.
type Evaluator struct {
	provider    llm.Provider
	models      []string
	temperature float64
	maxTokens   int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithTemperature sets the sampling temperature sent with each request.
func WithTemperature(t float64) Option {
	return func(e *Evaluator) { e.temperature = t }
}

// WithMaxTokens caps the response length. Zero leaves the provider default.
func WithMaxTokens(n int) Option {
	return func(e *Evaluator) { e.maxTokens = n }
}

// New creates an Evaluator that accepts only the listed models.
func New(provider llm.Provider, models []string, opts ...Option) *Evaluator {
	e := &Evaluator{
		provider: provider,
		models:   models,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate asks the model to critique content with the given focus. It
// makes exactly one request.
func (e *Evaluator) Evaluate(ctx context.Context, content string, focus Focus, model string) (*Evaluation, error) {
	if !focus.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFocus, focus)
	}
	if !slices.Contains(e.models, model) {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownModel, model, strings.Join(e.models, ", "))
	}

	prompt := BuildPrompt(content, focus)
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model:       model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
		Schema:      Schema,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstream, e.provider.Name(), err)
	}

	result, err := DecodeResult(resp.Content)
	if err != nil {
		return nil, err
	}

	usedModel := resp.Model
	if usedModel == "" {
		usedModel = model
	}
	// Some endpoints omit usage; fall back to a rough count.
	inputTokens, outputTokens := resp.InputTokens, resp.OutputTokens
	if inputTokens == 0 {
		inputTokens = llm.EstimateTokens(prompt)
	}
	if outputTokens == 0 {
		outputTokens = llm.EstimateTokens(resp.Content)
	}
	return &Evaluation{
		Result:       *result,
		Raw:          resp.Content,
		Provider:     e.provider.Name(),
		Model:        usedModel,
		Focus:        focus,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      llm.EstimateCost(model, inputTokens, outputTokens),
	}, nil
}

// DecodeResult parses a structured response. Every schema field must be
// present as a JSON string; anything else is ErrMalformedResponse.
func DecodeResult(raw string) (*Result, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	var fields map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedResponse)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrMalformedResponse)
	}

	values := make(map[string]string, len(Schema.Fields))
	for _, name := range Schema.FieldNames() {
		rawValue, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrMalformedResponse, name)
		}
		var v string
		if bytes.Equal(bytes.TrimSpace(rawValue), []byte("null")) {
			return nil, fmt.Errorf("%w: field %q is null", ErrMalformedResponse, name)
		}
		if err := json.Unmarshal(rawValue, &v); err != nil {
			return nil, fmt.Errorf("%w: field %q is not a string", ErrMalformedResponse, name)
		}
		values[name] = v
	}

	return &Result{
		WhatsRight:      values[FieldWhatsRight],
		WhatsWrong:      values[FieldWhatsWrong],
		Recommendations: values[FieldRecommendations],
	}, nil
}
