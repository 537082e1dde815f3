// Package llm is the contract with the text completion service.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/dbask/dbask/core"
)

// Request is a single completion call. Info carries grounding material that is
// sent with, but kept apart from, the prompt.
type Request struct {
	Prompt       string
	SystemPrompt string
	Info         string
}

// Generator returns the completion text for a request. Implementations make
// one blocking call and never retry.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Call runs req on gen. A failure always matches core.ErrGenerationService,
// whether or not gen classified it already.
func Call(ctx context.Context, gen Generator, req Request) (string, error) {
	out, err := gen.Generate(ctx, req)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, core.ErrGenerationService) {
		return "", err
	}
	return "", fmt.Errorf("%w: %w", core.ErrGenerationService, err)
}
