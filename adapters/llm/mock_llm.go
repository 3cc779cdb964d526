package llm

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/repositories"
)

const defaultMockReply = "Looking strong! Keep your core tight and breathe through each rep."

// quotedInput finds the quoted user utterance embedded in a prompt.
var quotedInput = regexp.MustCompile(`(?s)(?:transcription|just said): "(.*?)"`)

// MockLLM is an offline LargeLanguageModel. Preprocessing prompts get the
// quoted utterance back; every other prompt gets a fixed coaching reply.
type MockLLM struct {
	reply  string
	logger *zap.Logger
}

var _ repositories.LargeLanguageModel = (*MockLLM)(nil)

// NewMockLLM creates a mock model. An empty reply uses a canned one.
func NewMockLLM(reply string, logger *zap.Logger) *MockLLM {
	if reply == "" {
		reply = defaultMockReply
	}
	return &MockLLM{reply: reply, logger: logger}
}

func (m *MockLLM) Name() string { return "mock" }

// Generate implements LargeLanguageModel
func (m *MockLLM) Generate(ctx context.Context, prompt string, opts repositories.GenerateOptions) (string, error) {
	if strings.Contains(prompt, "Input transcription:") {
		if match := quotedInput.FindStringSubmatch(prompt); match != nil {
			return match[1], nil
		}
	}
	m.logger.Debug("Mock generation", zap.Int("promptChars", len(prompt)))
	return m.reply, nil
}
