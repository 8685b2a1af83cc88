// Package ident allocates the identifiers of one compiled document.
package ident

import (
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/tordrt/erdschema/internal/errors"
)

const (
	// EntityIDLength is the length of table, field and relationship ids.
	EntityIDLength = 21

	// MaxAttempts bounds the retries on an id collision.
	MaxAttempts = 8
)

// Alphabet used for entity ids.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// Generator produces candidate ids. Tests replace it to force collisions.
type Generator func() (string, error)

// Allocator hands out collision-free entity ids and sequential index ids.
// One Allocator belongs to one document compilation and is not safe for concurrent use.
type Allocator struct {
	generate  Generator
	allocated map[string]struct{}
	nextIndex int
}

// NewAllocator creates an allocator backed by nanoid
func NewAllocator() *Allocator {
	return NewAllocatorWithGenerator(func() (string, error) {
		return gonanoid.Generate(Alphabet, EntityIDLength)
	})
}

// NewAllocatorWithGenerator creates an allocator with a custom candidate generator
func NewAllocatorWithGenerator(gen Generator) *Allocator {
	return &Allocator{
		generate:  gen,
		allocated: make(map[string]struct{}),
	}
}

// EntityID returns an id not yet handed out by this allocator
func (a *Allocator) EntityID() (string, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		id, err := a.generate()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrTypeInternal, "failed to generate id")
		}
		if _, taken := a.allocated[id]; taken {
			continue
		}
		a.allocated[id] = struct{}{}
		return id, nil
	}

	return "", errors.NewIDExhausted(MaxAttempts)
}

// IndexID returns the next index id, starting at 0
func (a *Allocator) IndexID() int {
	id := a.nextIndex
	a.nextIndex++
	return id
}

// Allocated returns how many entity ids have been handed out
func (a *Allocator) Allocated() int {
	return len(a.allocated)
}
