// Package answer runs a validated query and has the generator explain the
// result, optionally reduced to a bare conclusion.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dbask/dbask/core"
	"github.com/dbask/dbask/core/format"
	"github.com/dbask/dbask/llm"
	"github.com/dbask/dbask/synth"
)

var errNotValidated = errors.New("query was not validated")

type Input struct {
	Question string
	Table    string
	SQL      synth.ValidatedSQL
	// SamplesContext is the grounding info given to the answering call.
	SamplesContext string
	Config         core.ConnectionConfig
	Simplify       bool
}

type Result struct {
	Rows   *core.Result
	Answer string
	// Conclusion is only set when the answer was simplified.
	Conclusion string
	// Mismatch is set when the conclusion failed the numeric check.
	Mismatch bool
}

// Text is what the caller gets back: the conclusion when there is a trusted
// one, the full answer otherwise.
func (r Result) Text() string {
	if r.Conclusion != "" && !r.Mismatch {
		return r.Conclusion
	}
	return r.Answer
}

type Synthesizer struct {
	source    core.Source
	gen       llm.Generator
	formatter core.Formatter
	log       *slog.Logger
	strict    bool
}

type Option func(*Synthesizer)

func WithLogger(log *slog.Logger) Option {
	return func(s *Synthesizer) {
		s.log = log
	}
}

// WithStrictConclusion fails a simplified answer whose conclusion does not
// carry the same numbers as the full answer.
func WithStrictConclusion(strict bool) Option {
	return func(s *Synthesizer) {
		s.strict = strict
	}
}

func New(source core.Source, gen llm.Generator, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		source:    source,
		gen:       gen,
		formatter: format.NewTable(),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synthesizer) Answer(ctx context.Context, in Input) (Result, error) {
	if in.SQL.IsZero() {
		return Result{}, fmt.Errorf("%w: %w", core.ErrInvalidSQL, errNotValidated)
	}

	rows, err := s.source.Execute(ctx, in.SQL.String(), in.Config)
	if err != nil {
		return Result{}, fmt.Errorf("source.Execute: %w", err)
	}

	rendered, err := rows.Format(s.formatter, 0, -1)
	if err != nil {
		return Result{}, fmt.Errorf("rows.Format: %w", err)
	}

	full, err := llm.Call(ctx, s.gen, answerRequest(in, string(rendered)))
	if err != nil {
		return Result{}, err
	}

	res := Result{Rows: rows, Answer: full}
	if !in.Simplify {
		return res, nil
	}

	conclusion, err := llm.Call(ctx, s.gen, conclusionRequest(in.Question, full))
	if err != nil {
		return Result{}, err
	}
	res.Conclusion = conclusion

	if err := CheckConclusion(full, conclusion); err != nil {
		if s.strict {
			return Result{}, err
		}
		res.Mismatch = true
		s.log.WarnContext(ctx, "conclusion does not match the answer, returning the full answer",
			slog.String("error", err.Error()),
		)
	}

	return res, nil
}
