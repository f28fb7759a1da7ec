package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// EntityType categorizes a recognized named entity.
type EntityType string

// The entity types relevant for privacy masking.
const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityLocation     EntityType = "location"
)

// Entity is a typed span recognized in a text.
// Start and End are half-open byte offsets into the analyzed text.
type Entity struct {
	Type  EntityType
	Value string
	Start int
	End   int
}

// EntityRecognizer finds person, organization and location mentions in text.
// Implementations must be thread-safe for concurrent use.
//
// Recognition is a best-effort capability: callers are expected to treat a
// recognizer error as a degradation, not a failure, and continue with
// whatever other detection sources they have.
type EntityRecognizer interface {
	// RecognizeEntities returns all typed entity spans found in text.
	// Returns an empty slice if no entities are found.
	RecognizeEntities(ctx context.Context, text string) ([]Entity, error)
}

// Generator produces chat completions for retrieval-augmented answering.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// GenerateText produces a completion for the given system and user
	// prompts and returns the full response text.
	GenerateText(ctx context.Context, system, prompt string) (string, error)

	// GenerateStream produces the same completion incrementally. fn is
	// invoked once per response fragment as it arrives; an error from fn
	// aborts generation. The assembled response text is returned when the
	// stream ends.
	GenerateStream(ctx context.Context, system, prompt string, fn func(chunk string) error) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder, EntityRecognizer and
// Generator instances, ensuring they share configuration appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// EntityRecognizer returns the named-entity recognition service.
	// May return nil if recognition is disabled by configuration.
	EntityRecognizer() EntityRecognizer

	// Generator returns the chat completion service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	Close() error
}
