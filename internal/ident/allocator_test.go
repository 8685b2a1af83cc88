package ident

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/erdschema/internal/errors"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{21}$`)

func TestEntityIDShapeAndUniqueness(t *testing.T) {
	a := NewAllocator()
	seen := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		id, err := a.EntityID()
		require.NoError(t, err)
		assert.Regexp(t, idPattern, id)
		assert.False(t, seen[id], "id %s handed out twice", id)
		seen[id] = true
	}
	assert.Equal(t, 1000, a.Allocated())
}

func TestEntityIDRetriesOnCollision(t *testing.T) {
	candidates := []string{"aaaaaaaaaaaaaaaaaaaaa", "aaaaaaaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbbbbbbb"}
	calls := 0
	a := NewAllocatorWithGenerator(func() (string, error) {
		id := candidates[calls]
		calls++
		return id, nil
	})

	first, err := a.EntityID()
	require.NoError(t, err)
	second, err := a.EntityID()
	require.NoError(t, err)

	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaa", first)
	assert.Equal(t, "bbbbbbbbbbbbbbbbbbbbb", second)
	assert.Equal(t, 3, calls)
}

func TestEntityIDExhausted(t *testing.T) {
	a := NewAllocatorWithGenerator(func() (string, error) { return "same", nil })

	_, err := a.EntityID()
	require.NoError(t, err)

	_, err = a.EntityID()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeIDExhausted))
}

func TestIndexIDSequence(t *testing.T) {
	a := NewAllocator()
	for want := 0; want < 5; want++ {
		assert.Equal(t, want, a.IndexID())
	}

	// a fresh allocator starts over
	assert.Equal(t, 0, NewAllocator().IndexID())
}
