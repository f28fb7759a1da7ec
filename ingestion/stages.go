package ingestion

import "fmt"

// Stage names one step of the ingestion pipeline. A document passes the
// stages strictly in order; the stage of the first failure is recorded in
// the returned StageError.
type Stage string

const (
	StageExtract Stage = "extract"
	StageChunk   Stage = "chunk"
	StageMask    Stage = "mask"
	StageEmbed   Stage = "embed"
	StageIndex   Stage = "index"
	StageCommit  Stage = "commit"
)

// State is the observable processing state of a document inside the
// pipeline. Each state is entered exactly once; a failed document stops in
// StateFailed and is never retried.
type State string

const (
	StateReceived  State = "RECEIVED"
	StateExtracted State = "EXTRACTED"
	StateChunked   State = "CHUNKED"
	StateMasked    State = "MASKED"
	StateEmbedded  State = "EMBEDDED"
	StateIndexed   State = "INDEXED"
	StateCommitted State = "COMMITTED"
	StateFailed    State = "FAILED"
)

// StageError reports which pipeline stage a document failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ingestion stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
