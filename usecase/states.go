package usecase

// PipelineState names the stage a coaching request reached. It only appears
// in logs.
type PipelineState string

const (
	StateReceived         PipelineState = "received"
	StateValidated        PipelineState = "validated"
	StateNormalized       PipelineState = "normalized"
	StateTranscribed      PipelineState = "transcribed"
	StateContextBuilt     PipelineState = "context_built"
	StateAgentCleaned     PipelineState = "agent_cleaned"
	StatePersonaGenerated PipelineState = "persona_generated"
	StateSynthesized      PipelineState = "synthesized"
	StateAssembled        PipelineState = "assembled"
	StateRejected         PipelineState = "rejected"
	StateFailed           PipelineState = "failed"
)
