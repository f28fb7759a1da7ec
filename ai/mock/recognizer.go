package mock

import (
	"context"
	"sync"

	"github.com/klartext/redakt/ai"
)

// Recognizer is a test double for ai.EntityRecognizer. Without an override
// it returns no entities.
type Recognizer struct {
	RecognizeEntitiesFunc func(ctx context.Context, text string) ([]ai.Entity, error)

	mu        sync.Mutex
	callCount int
	lastText  string
}

func NewRecognizer() *Recognizer {
	return &Recognizer{}
}

func (r *Recognizer) RecognizeEntities(ctx context.Context, text string) ([]ai.Entity, error) {
	r.mu.Lock()
	r.callCount++
	r.lastText = text
	r.mu.Unlock()

	if r.RecognizeEntitiesFunc != nil {
		return r.RecognizeEntitiesFunc(ctx, text)
	}
	return nil, nil
}

// CallCount reports how many recognition calls were made.
func (r *Recognizer) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.callCount
}

// LastText returns the text passed to the most recent call.
func (r *Recognizer) LastText() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastText
}
