package categorization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"necromancer/internal/core"
	"necromancer/internal/llm"
	"necromancer/internal/logger"
)

// LLMClient defines the interface for LLM operations needed by the AI classifier
type LLMClient interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrUnknownCategory means the model named something outside the fixed set.
	ErrUnknownCategory = errors.New("response category is not a known category")
	// ErrLowConfidence means the model was less sure than the configured threshold.
	ErrLowConfidence = errors.New("response confidence below threshold")
	// ErrMalformedResponse means the response did not match the expected schema.
	ErrMalformedResponse = errors.New("malformed classification response")
)

const responseSchema = `{
	"type": "object",
	"required": ["category", "confidence"],
	"properties": {
		"category":   {"type": "string", "minLength": 1},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"reasoning":  {"type": "string"}
	}
}`

var responseSchemaLoader = gojsonschema.NewStringLoader(responseSchema)

// AIOptions configures the AI classifier.
type AIOptions struct {
	Threshold float64       // minimum accepted confidence
	Timeout   time.Duration // per call
}

// DefaultAIOptions returns the default threshold and timeout.
func DefaultAIOptions() AIOptions {
	return AIOptions{
		Threshold: 0.7,
		Timeout:   10 * time.Second,
	}
}

// AIClassifier asks a language model for the category and falls back to
// another classifier whenever the answer is unusable.
type AIClassifier struct {
	client   LLMClient
	fallback Classifier
	opts     AIOptions
	log      zerolog.Logger
}

// NewAIClassifier creates an AI classifier. fallback is required and is
// normally a *RuleClassifier.
func NewAIClassifier(client LLMClient, fallback Classifier, opts AIOptions) *AIClassifier {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAIOptions().Timeout
	}
	return &AIClassifier{
		client:   client,
		fallback: fallback,
		opts:     opts,
		log:      logger.For("classifier"),
	}
}

// Classify returns the model's answer when it is usable, otherwise the
// fallback classifier's answer for the same input.
func (a *AIClassifier) Classify(ctx context.Context, in Input) Result {
	outcome := a.Attempt(ctx, in)
	if outcome.OK() {
		return outcome.Result
	}

	a.log.Debug().Err(outcome.Err).Str("title", in.Title).Msg("AI classification rejected, using rules")
	return a.fallback.Classify(ctx, in)
}

// Attempt makes one call to the model and reports the parsed result or the
// reason it cannot be used. The call is bounded by the configured timeout and
// is not cancelled by ctx.
func (a *AIClassifier) Attempt(ctx context.Context, in Input) Outcome {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.opts.Timeout)
	defer cancel()

	raw, err := a.client.GenerateJSON(callCtx, BuildClassificationPrompt(in))
	if err != nil {
		return Outcome{Err: core.NewServiceError("classify", err)}
	}

	result, err := ParseResponse(raw)
	if err != nil {
		return Outcome{Err: err}
	}
	if result.Confidence < a.opts.Threshold {
		return Outcome{Err: fmt.Errorf("%w: %.2f < %.2f", ErrLowConfidence, result.Confidence, a.opts.Threshold)}
	}
	return Outcome{Result: result}
}

type aiResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ParseResponse validates a model response against the response schema and
// maps its category onto the fixed set.
func ParseResponse(raw string) (Result, error) {
	raw = llm.CleanJSONBlock(raw)

	validation, err := gojsonschema.Validate(responseSchemaLoader, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !validation.Valid() {
		var problems []string
		for _, desc := range validation.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return Result{}, fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(problems, "; "))
	}

	var resp aiResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	category, ok := core.ParseCategory(resp.Category)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCategory, resp.Category)
	}

	return Result{
		Category:   category,
		Confidence: resp.Confidence,
		Tier:       core.TierAI,
		Reasoning:  resp.Reasoning,
	}, nil
}
