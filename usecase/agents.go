package usecase

import (
	"bytes"
	"context"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain"
	"github.com/satriahrh/gymbuddy/domain/entities"
	"github.com/satriahrh/gymbuddy/domain/repositories"
)

// TextStage is one text transform of the response generator.
type TextStage interface {
	Name() string
	Transform(ctx context.Context, input string, cc entities.ConversationContext) (string, error)
}

// FailurePolicy decides what the generator does when a stage errors.
type FailurePolicy int

const (
	// FailFast aborts the request with the stage error.
	FailFast FailurePolicy = iota
	// FallbackToInput logs the error and hands the stage input to the next stage.
	FallbackToInput
)

func (p FailurePolicy) String() string {
	if p == FallbackToInput {
		return "fallback_to_input"
	}
	return "fail_fast"
}

// nullIndicators are replies the intent agent uses to say "nothing here".
var nullIndicators = []string{"none", "empty", "null"}

// minimumVariance is used for every generation so replies are reproducible
// as far as the provider allows.
var minimumVariance = repositories.GenerateOptions{Temperature: 0, MaxOutputTokens: 256}

type promptData struct {
	Persona string
	Block   string
	Input   string
}

func renderPrompt(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	intentPrompt  = template.Must(template.New("intent").Parse(intentPromptTemplate))
	personaPrompt = template.Must(template.New("persona").Parse(personaPromptTemplate))
)

// IntentAgent cleans the transcription against the exercise context and
// suppresses input unrelated to the workout.
type IntentAgent struct {
	llm     repositories.LargeLanguageModel
	timeout time.Duration
}

// NewIntentAgent creates the first generation stage
func NewIntentAgent(llm repositories.LargeLanguageModel, timeout time.Duration) *IntentAgent {
	return &IntentAgent{llm: llm, timeout: timeout}
}

func (a *IntentAgent) Name() string { return "intent_agent" }

// Transform returns the cleaned utterance, or "" when there is nothing to answer.
// Errors are *domain.IntentAgentFailure.
func (a *IntentAgent) Transform(ctx context.Context, input string, cc entities.ConversationContext) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", nil
	}

	prompt, err := renderPrompt(intentPrompt, promptData{Block: cc.Block, Input: input})
	if err != nil {
		return "", &domain.IntentAgentFailure{Err: err}
	}

	ctx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	reply, err := a.llm.Generate(ctx, prompt, minimumVariance)
	if err != nil {
		return "", &domain.IntentAgentFailure{Err: err}
	}

	reply = strings.TrimSpace(reply)
	if isNullReply(reply) {
		return "", nil
	}
	return reply, nil
}

func isNullReply(reply string) bool {
	if len([]rune(reply)) < minMeaningfulChars {
		return true
	}
	for _, word := range nullIndicators {
		if strings.EqualFold(reply, word) {
			return true
		}
	}
	return false
}

// PersonaAgent produces the coaching reply in the voice of the persona.
type PersonaAgent struct {
	llm     repositories.LargeLanguageModel
	persona string
	timeout time.Duration
}

// NewPersonaAgent creates the second generation stage. An empty persona
// defaults to "Max".
func NewPersonaAgent(llm repositories.LargeLanguageModel, persona string, timeout time.Duration) *PersonaAgent {
	if persona == "" {
		persona = "Max"
	}
	return &PersonaAgent{llm: llm, persona: persona, timeout: timeout}
}

func (a *PersonaAgent) Name() string { return "persona_agent" }

// Transform returns the trimmed reply with enclosing quotes removed.
// Errors are *domain.PersonaGenerationError.
func (a *PersonaAgent) Transform(ctx context.Context, input string, cc entities.ConversationContext) (string, error) {
	prompt, err := renderPrompt(personaPrompt, promptData{Persona: a.persona, Block: cc.Block, Input: input})
	if err != nil {
		return "", &domain.PersonaGenerationError{Err: err}
	}

	ctx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	reply, err := a.llm.Generate(ctx, prompt, minimumVariance)
	if err != nil {
		return "", &domain.PersonaGenerationError{Err: err}
	}
	return cleanReply(reply), nil
}

func cleanReply(reply string) string {
	reply = strings.TrimSpace(reply)
	reply = strings.Trim(reply, `"'`)
	return strings.TrimSpace(reply)
}

type policyStage struct {
	stage  TextStage
	policy FailurePolicy
}

// ResponseGenerator runs text stages in sequence. An empty stage output ends
// the run with an empty reply.
type ResponseGenerator struct {
	stages []policyStage
	logger *zap.Logger
}

// NewResponseGenerator wires the two coaching stages. The intent stage falls
// back to the raw transcription on failure; the persona stage fails the request.
func NewResponseGenerator(intent, persona TextStage, logger *zap.Logger) *ResponseGenerator {
	return &ResponseGenerator{
		stages: []policyStage{
			{stage: intent, policy: FallbackToInput},
			{stage: persona, policy: FailFast},
		},
		logger: logger,
	}
}

// Generate returns the final reply. It is "" when a stage filtered the input out.
func (g *ResponseGenerator) Generate(ctx context.Context, cc entities.ConversationContext) (string, error) {
	text := cc.Transcription
	for _, ps := range g.stages {
		out, err := ps.stage.Transform(ctx, text, cc)
		if err != nil {
			if ps.policy == FailFast {
				g.logger.Error("Generation stage failed",
					zap.String("stage", ps.stage.Name()),
					zap.String("policy", ps.policy.String()),
					zap.Error(err))
				return "", err
			}
			g.logger.Warn("Generation stage failed, continuing with its input",
				zap.String("stage", ps.stage.Name()),
				zap.String("policy", ps.policy.String()),
				zap.Error(err))
			out = text
		}

		if out == "" {
			g.logger.Info("Generation stage produced no output",
				zap.String("stage", ps.stage.Name()))
			return "", nil
		}
		text = out
	}
	return text, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
