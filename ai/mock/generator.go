package mock

import (
	"context"
	"sync"
)

// Generator is a test double for ai.Generator. Without an override it
// echoes a fixed answer.
type Generator struct {
	GenerateTextFunc   func(ctx context.Context, system, prompt string) (string, error)
	GenerateStreamFunc func(ctx context.Context, system, prompt string, fn func(chunk string) error) (string, error)

	mu         sync.Mutex
	callCount  int
	lastSystem string
	lastPrompt string
}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	g.mu.Lock()
	g.callCount++
	g.lastSystem = system
	g.lastPrompt = prompt
	g.mu.Unlock()

	if g.GenerateTextFunc != nil {
		return g.GenerateTextFunc(ctx, system, prompt)
	}
	return "mock answer", nil
}

// GenerateStream delivers the GenerateText result as a single fragment
// unless an override is set.
func (g *Generator) GenerateStream(ctx context.Context, system, prompt string, fn func(chunk string) error) (string, error) {
	g.mu.Lock()
	g.callCount++
	g.lastSystem = system
	g.lastPrompt = prompt
	g.mu.Unlock()

	if g.GenerateStreamFunc != nil {
		return g.GenerateStreamFunc(ctx, system, prompt, fn)
	}

	text := "mock answer"
	if g.GenerateTextFunc != nil {
		var err error
		text, err = g.GenerateTextFunc(ctx, system, prompt)
		if err != nil {
			return "", err
		}
	}
	if err := fn(text); err != nil {
		return "", err
	}
	return text, nil
}

// CallCount reports how many generation calls were made.
func (g *Generator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.callCount
}

// LastPrompt returns the user prompt of the most recent call.
func (g *Generator) LastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastPrompt
}

// LastSystem returns the system prompt of the most recent call.
func (g *Generator) LastSystem() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSystem
}
