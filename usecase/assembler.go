package usecase

import (
	"time"

	"github.com/satriahrh/gymbuddy/domain/entities"
)

// ResponseAssembler builds response envelopes. Every envelope it builds is
// a successful one; failures are rendered by the transport.
type ResponseAssembler struct {
	now func() time.Time
}

// NewResponseAssembler creates an assembler stamping envelopes with the wall clock
func NewResponseAssembler() *ResponseAssembler {
	return &ResponseAssembler{now: time.Now}
}

// Assemble builds the envelope for a completed request. audio may be nil.
func (a *ResponseAssembler) Assemble(transcription, reply string, audio *SynthesizedAudio) *entities.ResponseEnvelope {
	env := &entities.ResponseEnvelope{
		Success:       true,
		Transcription: transcription,
		LLMResponse:   reply,
		Timestamp:     entities.Timestamp(a.now()),
	}
	if audio != nil {
		b64 := audio.Base64
		env.AudioResponse = &b64
		env.AudioURL = audio.URL
	}
	return env
}

// Empty is the envelope for audio without meaningful speech.
func (a *ResponseAssembler) Empty() *entities.ResponseEnvelope {
	return a.Assemble("", "", nil)
}
