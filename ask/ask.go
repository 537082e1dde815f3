// Package ask runs the whole question to answer pipeline against one table.
package ask

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dbask/dbask/answer"
	"github.com/dbask/dbask/core"
	"github.com/dbask/dbask/glossary"
	"github.com/dbask/dbask/llm"
	"github.com/dbask/dbask/profiler"
	"github.com/dbask/dbask/synth"
)

// Params is a single invocation.
type Params struct {
	Question string
	Table    string
	// Glossary is nil, a map, a file path or inline JSON/YAML. See glossary.Parse.
	Glossary   any
	Simplify   bool
	Connection core.ConnectionConfig
}

// Outcome holds every stage result of an invocation.
type Outcome struct {
	SQL        synth.ValidatedSQL
	Rows       *core.Result
	Answer     string
	Conclusion string
	// Mismatch is set when the conclusion was not trusted.
	Mismatch bool
}

// Text is the reply of the invocation.
func (o *Outcome) Text() string {
	return answer.Result{Answer: o.Answer, Conclusion: o.Conclusion, Mismatch: o.Mismatch}.Text()
}

// Asker is safe for concurrent use, every call opens its own connections.
type Asker struct {
	source   core.Source
	gen      llm.Generator
	log      *slog.Logger
	now      func() time.Time
	strict   bool
	registry prometheus.Registerer
	metrics  *metrics
}

type Option func(*Asker)

func WithLogger(log *slog.Logger) Option {
	return func(a *Asker) {
		a.log = log
	}
}

// WithMetrics registers the pipeline metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(a *Asker) {
		a.registry = reg
	}
}

func WithStrictConclusion(strict bool) Option {
	return func(a *Asker) {
		a.strict = strict
	}
}

// WithClock sets the time source of the query prompt.
func WithClock(now func() time.Time) Option {
	return func(a *Asker) {
		a.now = now
	}
}

func New(source core.Source, gen llm.Generator, opts ...Option) (*Asker, error) {
	a := &Asker{
		source:  source,
		gen:     gen,
		log:     slog.Default(),
		now:     time.Now,
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.registry != nil {
		if err := a.metrics.register(a.registry); err != nil {
			return nil, fmt.Errorf("metrics.register: %w", err)
		}
	}

	return a, nil
}

// Ask answers the question and returns the reply text.
func (a *Asker) Ask(ctx context.Context, p Params) (string, error) {
	out, err := a.Run(ctx, p)
	if err != nil {
		return "", err
	}
	return out.Text(), nil
}

// Run answers the question and returns all intermediate results.
func (a *Asker) Run(ctx context.Context, p Params) (out *Outcome, err error) {
	log := a.log.With(slog.String("invocation", uuid.NewString()), slog.String("table", p.Table))
	defer func() {
		a.metrics.invocations.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			log.ErrorContext(ctx, "invocation failed", slog.String("error", err.Error()))
		}
	}()

	cfg := p.Connection.WithDefaults()
	if !cfg.Dialect.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedDialect, cfg.Dialect)
	}

	gloss, gerr := glossary.Parse(p.Glossary)
	if gerr != nil {
		log.WarnContext(ctx, "ignoring column glossary", slog.String("error", gerr.Error()))
	}

	var (
		schema  core.Schema
		samples profiler.SampleRowSet
	)
	err = a.stage(stageProfile, func() error {
		var err error
		schema, samples, err = profiler.New(a.source, profiler.WithLogger(log)).Profile(ctx, p.Table, cfg)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("profiler.Profile: %w", err)
	}

	in := synth.Input{
		Question: p.Question,
		Table:    p.Table,
		Schema:   schema,
		Samples:  samples,
		Glossary: gloss.Filter(schema),
		Dialect:  cfg.Dialect,
	}

	var validated synth.ValidatedSQL
	err = a.stage(stageSynthesize, func() error {
		var err error
		validated, err = synth.New(a.gen, synth.WithLogger(log), synth.WithClock(a.now)).Synthesize(ctx, in)
		return err
	})
	if err != nil {
		a.metrics.observeRejection(err)
		return nil, fmt.Errorf("synth.Synthesize: %w", err)
	}

	info, err := synth.InfoContext(in)
	if err != nil {
		return nil, fmt.Errorf("synth.InfoContext: %w", err)
	}

	var res answer.Result
	err = a.stage(stageAnswer, func() error {
		var err error
		res, err = answer.New(a.source, a.gen,
			answer.WithLogger(log),
			answer.WithStrictConclusion(a.strict),
		).Answer(ctx, answer.Input{
			Question:       p.Question,
			Table:          p.Table,
			SQL:            validated,
			SamplesContext: info,
			Config:         cfg,
			Simplify:       p.Simplify,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("answer.Answer: %w", err)
	}

	log.InfoContext(ctx, "answered question", slog.String("sql", validated.String()), slog.Int("rows", res.Rows.Len()))

	return &Outcome{
		SQL:        validated,
		Rows:       res.Rows,
		Answer:     res.Answer,
		Conclusion: res.Conclusion,
		Mismatch:   res.Mismatch,
	}, nil
}

func (a *Asker) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	a.metrics.stageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}
