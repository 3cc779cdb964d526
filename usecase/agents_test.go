package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain"
	"github.com/satriahrh/gymbuddy/domain/entities"
)

func TestIntentAgent_Transform(t *testing.T) {
	tests := []struct {
		name  string
		input string
		reply string
		want  string
		calls int
	}{
		{"cleaned", "uh how many reps do I have", "  How many reps do I have left?  ", "How many reps do I have left?", 1},
		{"blank input skips model", "   ", "anything", "", 0},
		{"null word", "thanks for watching", "NONE", "", 1},
		{"empty word", "random chatter", "empty", "", 1},
		{"too short", "something", "ok", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{replies: []string{tt.reply}}
			agent := NewIntentAgent(llm, 0)

			got, err := agent.Transform(context.Background(), tt.input, entities.ConversationContext{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Transform = %q, want %q", got, tt.want)
			}
			if llm.Calls() != tt.calls {
				t.Errorf("model calls = %d, want %d", llm.Calls(), tt.calls)
			}
		})
	}
}

func TestIntentAgent_PromptCarriesContext(t *testing.T) {
	llm := &fakeLLM{replies: []string{"How is my form?"}}
	agent := NewIntentAgent(llm, 0)

	cc := entities.ConversationContext{Block: "- Exercise: squat"}
	if _, err := agent.Transform(context.Background(), "how's my form", cc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(llm.prompts[0], "- Exercise: squat") || !strings.Contains(llm.prompts[0], "how's my form") {
		t.Errorf("prompt missing context or input:\n%s", llm.prompts[0])
	}
	if llm.opts[0].Temperature != 0 {
		t.Errorf("temperature = %v, want 0", llm.opts[0].Temperature)
	}
}

func TestIntentAgent_Failure(t *testing.T) {
	agent := NewIntentAgent(&fakeLLM{errs: []error{errProviderDown}}, 0)

	_, err := agent.Transform(context.Background(), "how many reps", entities.ConversationContext{})
	var failure *domain.IntentAgentFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected IntentAgentFailure, got %v", err)
	}
	if !errors.Is(err, errProviderDown) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestPersonaAgent_Transform(t *testing.T) {
	llm := &fakeLLM{replies: []string{"  \"Great depth, keep your chest up!\"  "}}
	agent := NewPersonaAgent(llm, "", 0)

	got, err := agent.Transform(context.Background(), "How is my squat?", entities.ConversationContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Great depth, keep your chest up!" {
		t.Errorf("Transform = %q", got)
	}
	if !strings.Contains(llm.prompts[0], "Max") {
		t.Errorf("prompt should name the persona:\n%s", llm.prompts[0])
	}
}

func TestPersonaAgent_Failure(t *testing.T) {
	agent := NewPersonaAgent(&fakeLLM{errs: []error{errProviderDown}}, "Max", 0)

	_, err := agent.Transform(context.Background(), "How is my squat?", entities.ConversationContext{})
	var failure *domain.PersonaGenerationError
	if !errors.As(err, &failure) {
		t.Fatalf("expected PersonaGenerationError, got %v", err)
	}
}

func newTestGenerator(llm *fakeLLM) *ResponseGenerator {
	return NewResponseGenerator(NewIntentAgent(llm, 0), NewPersonaAgent(llm, "Max", 0), zap.NewNop())
}

func TestResponseGenerator_BothStages(t *testing.T) {
	llm := &fakeLLM{replies: []string{"How many reps left?", "Two more, you got this!"}}

	reply, err := newTestGenerator(llm).Generate(context.Background(), entities.ConversationContext{Transcription: "how many reps left"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Two more, you got this!" {
		t.Errorf("reply = %q", reply)
	}
	if !strings.Contains(llm.prompts[1], "How many reps left?") {
		t.Errorf("persona stage should receive the cleaned text:\n%s", llm.prompts[1])
	}
}

func TestResponseGenerator_IntentFailureFallsBack(t *testing.T) {
	llm := &fakeLLM{
		errs:    []error{errProviderDown, nil},
		replies: []string{"", "Keep pushing!"},
	}

	reply, err := newTestGenerator(llm).Generate(context.Background(), entities.ConversationContext{Transcription: "raw words here"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Keep pushing!" {
		t.Errorf("reply = %q", reply)
	}
	if !strings.Contains(llm.prompts[1], "raw words here") {
		t.Errorf("persona stage should receive the raw transcription:\n%s", llm.prompts[1])
	}
}

func TestResponseGenerator_IntentSuppresses(t *testing.T) {
	llm := &fakeLLM{replies: []string{"none"}}

	reply, err := newTestGenerator(llm).Generate(context.Background(), entities.ConversationContext{Transcription: "thanks for watching"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "" {
		t.Errorf("reply = %q, want empty", reply)
	}
	if llm.Calls() != 1 {
		t.Errorf("persona stage should not run, calls = %d", llm.Calls())
	}
}

func TestResponseGenerator_PersonaFailureIsTerminal(t *testing.T) {
	llm := &fakeLLM{
		replies: []string{"How is my form?"},
		errs:    []error{nil, errProviderDown},
	}

	_, err := newTestGenerator(llm).Generate(context.Background(), entities.ConversationContext{Transcription: "how is my form"})
	var failure *domain.PersonaGenerationError
	if !errors.As(err, &failure) {
		t.Fatalf("expected PersonaGenerationError, got %v", err)
	}
}
