// Package generator defines the contract for turning a text prompt into an
// image. Implementations live in sub-packages:
//   - placeholder: returns the bundled placeholder image (default)
//   - openai:      calls the OpenAI image generations API
package generator

import "context"

// Result is what a generator produced for one prompt.
type Result struct {
	ImageURL       string `json:"imageUrl"`
	Description    string `json:"description"`
	EnhancedPrompt string `json:"enhancedPrompt"`
}

// Generator turns a prompt into an image.
//
// Implementations must honour ctx cancellation and must not retain the
// prompt after returning.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Result, error)
}
