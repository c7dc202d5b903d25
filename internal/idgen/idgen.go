// Package idgen assigns link identifiers.
package idgen

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator generates unique identifiers.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate() (uuid.UUID, error)
}

// Func adapts a plain function to Generator.
type Func func() (uuid.UUID, error)

func (f Func) Generate() (uuid.UUID, error) { return f() }

// Fixed returns a Generator that hands out ids in order and fails once they
// run out. Useful when a test needs to know an id before it is inserted.
func Fixed(ids ...uuid.UUID) Generator {
	var mu sync.Mutex
	next := 0
	return Func(func() (uuid.UUID, error) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(ids) {
			return uuid.Nil, fmt.Errorf("idgen: fixed generator exhausted after %d ids", len(ids))
		}
		id := ids[next]
		next++
		return id, nil
	})
}

// NewV4 returns a Generator that produces random UUID v4 values.
func NewV4() Generator {
	return Func(func() (uuid.UUID, error) { return uuid.New(), nil })
}

type v7Gen struct {
	maxRetries int
}

type V7Option func(*v7Gen)

// WithRetries sets how many times to retry uuid.NewV7() after the initial attempt.
// Defaults to 1. Set to 0 to disable retries.
func WithRetries(n int) V7Option {
	return func(g *v7Gen) {
		if n >= 0 {
			g.maxRetries = n
		}
	}
}

// NewV7 returns a Generator that produces time-ordered UUID v7 values, which
// keep freshly inserted links close together in a B-tree index.
func NewV7(opts ...V7Option) Generator {
	g := &v7Gen{maxRetries: 1}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *v7Gen) Generate() (uuid.UUID, error) {
	var last error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		id, err := uuid.NewV7()
		if err == nil {
			return id, nil
		}
		last = err
	}
	return uuid.Nil, fmt.Errorf("uuid v7 generation failed after %d attempts: %w", g.maxRetries+1, last)
}

// Default is the generator stores use when none is configured.
func Default() Generator {
	return NewV7(WithRetries(1))
}
