// Package ai defines the interfaces for the external AI capabilities the
// pipeline depends on: text embedding, named-entity recognition, and chat
// answer generation.
//
// Implementations live in subpackages:
//   - ai/openai: OpenAI-compatible services via langchaingo (Ollama, LocalAI, vLLM, ...)
//   - ai/mock: test doubles with deterministic behavior
package ai
