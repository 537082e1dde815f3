// Package mock provides a scripted llm.Generator for tests.
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/dbask/dbask/llm"
)

var ErrExhausted = errors.New("no scripted response left")

var _ llm.Generator = (*Generator)(nil)

// Generator replies with scripted responses in order and records every request.
type Generator struct {
	mu        sync.Mutex
	responses []response
	requests  []llm.Request
}

type response struct {
	text string
	err  error
}

func NewGenerator(responses ...string) *Generator {
	g := &Generator{}
	for _, r := range responses {
		g.responses = append(g.responses, response{text: r})
	}
	return g
}

// Then queues a response.
func (g *Generator) Then(text string) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses = append(g.responses, response{text: text})
	return g
}

// ThenFail queues an error.
func (g *Generator) ThenFail(err error) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses = append(g.responses, response{err: err})
	return g
}

func (g *Generator) Generate(_ context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)
	if len(g.responses) == 0 {
		return "", ErrExhausted
	}

	r := g.responses[0]
	g.responses = g.responses[1:]
	return r.text, r.err
}

// Requests returns every request received so far, in order.
func (g *Generator) Requests() []llm.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]llm.Request(nil), g.requests...)
}
