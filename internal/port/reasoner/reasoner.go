// Package reasoner defines the port for the text generation backend the
// host agent consults before delegating.
package reasoner

import "context"

// Options tunes a single generation.
type Options struct {
	Temperature float64
	TopP        float64
}

// Reasoner produces a completion for a prompt.
type Reasoner interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// Func adapts a plain function to Reasoner.
type Func func(ctx context.Context, prompt string, opts Options) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}
