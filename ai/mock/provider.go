package mock

import "github.com/klartext/redakt/ai"

// Provider bundles the mock embedder, recognizer and generator behind the
// ai.Provider interface.
type Provider struct {
	Emb *Embedder
	Rec *Recognizer
	Gen *Generator
}

// NewProvider returns a provider with default mocks attached.
func NewProvider() *Provider {
	return &Provider{
		Emb: NewEmbedder(),
		Rec: NewRecognizer(),
		Gen: NewGenerator(),
	}
}

func (p *Provider) Embedder() ai.Embedder { return p.Emb }

func (p *Provider) EntityRecognizer() ai.EntityRecognizer {
	if p.Rec == nil {
		return nil
	}
	return p.Rec
}

func (p *Provider) Generator() ai.Generator { return p.Gen }

func (p *Provider) Close() error { return nil }
