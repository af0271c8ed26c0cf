// Package placeholder is the demo image generator: every prompt maps to the
// same bundled image plus a templated description.
package placeholder

import (
	"context"
	"fmt"

	"github.com/sakif/creo-studio/internal/generator"
)

// ImageURL is served from the embedded static assets.
const ImageURL = "/placeholder.png"

// Generator is stateless and safe for concurrent use.
type Generator struct{}

var _ generator.Generator = Generator{}

func New() Generator {
	return Generator{}
}

func (Generator) Generate(ctx context.Context, prompt string) (*generator.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &generator.Result{
		ImageURL:       ImageURL,
		Description:    Describe(prompt),
		EnhancedPrompt: prompt,
	}, nil
}

// Describe returns the demo description for prompt.
func Describe(prompt string) string {
	return fmt.Sprintf("A placeholder image representing: \"%s\". This is a demo version - in production, this would be a real AI-generated image based on your prompt.", prompt)
}
