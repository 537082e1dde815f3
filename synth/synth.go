// Package synth turns a question into a validated SQL query. The model is
// asked for a narrow SELECT subset and whatever it returns is parsed and
// checked before anyone may run it.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dbask/dbask/core"
	"github.com/dbask/dbask/llm"
	"github.com/dbask/dbask/profiler"
)

// Input is everything a query is synthesized from.
type Input struct {
	Question string
	Table    string
	Schema   core.Schema
	Samples  profiler.SampleRowSet
	Glossary map[string]string
	Dialect  core.Dialect
}

type Synthesizer struct {
	gen llm.Generator
	log *slog.Logger
	now func() time.Time
}

type Option func(*Synthesizer)

func WithLogger(log *slog.Logger) Option {
	return func(s *Synthesizer) {
		s.log = log
	}
}

// WithClock sets the time source of the prompt timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		s.now = now
	}
}

func New(gen llm.Generator, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		gen: gen,
		log: slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize asks the generator for a query and validates it. A rejected
// candidate is final, there is no second attempt.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) (ValidatedSQL, error) {
	if !in.Dialect.Valid() {
		return ValidatedSQL{}, fmt.Errorf("%w: %q", core.ErrUnsupportedDialect, in.Dialect)
	}

	req, err := Request(in, s.now())
	if err != nil {
		return ValidatedSQL{}, fmt.Errorf("synth.Request: %w", err)
	}

	out, err := llm.Call(ctx, s.gen, req)
	if err != nil {
		return ValidatedSQL{}, err
	}

	candidate := stripMarkdownSQL(out)
	validated, err := Validate(candidate, Policy{
		Table:   in.Table,
		Schema:  in.Schema,
		Dialect: in.Dialect,
		Intent:  DetectIntent(in.Question),
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.log.WarnContext(ctx, "rejected generated sql",
				slog.String("rule", string(verr.Rule)),
				slog.String("reason", verr.Reason),
				slog.String("sql", candidate),
			)
		}
		return ValidatedSQL{}, err
	}

	s.log.DebugContext(ctx, "validated generated sql", slog.String("sql", validated.String()))
	return validated, nil
}
