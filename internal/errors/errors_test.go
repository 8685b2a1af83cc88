package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := New(ErrTypeValidation, "bad cardinality")
	assert.Equal(t, "validation: bad cardinality", err.Error())

	cause := errors.New("eof")
	wrapped := Wrap(cause, ErrTypeInput, "failed to read schema")
	assert.Equal(t, "input: failed to read schema (caused by: eof)", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestIsTypeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("failed to compile: %w", NewDuplicateName("users", "id"))

	assert.True(t, IsType(err, ErrTypeDuplicateName))
	assert.False(t, IsType(err, ErrTypeDanglingReference))
	assert.Equal(t, ErrTypeDuplicateName, GetType(err))
	assert.Equal(t, ErrTypeInternal, GetType(errors.New("plain")))
}

func TestIsValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"duplicate name", NewDuplicateName("", "users"), true},
		{"dangling reference", NewDanglingReference("index idx_a", "users", "missing"), true},
		{"id exhausted", NewIDExhausted(8), true},
		{"validation", NewValidation("empty name"), true},
		{"input", New(ErrTypeInput, "unreadable"), false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidation(tt.err))
		})
	}
}

func TestConstructorMessages(t *testing.T) {
	assert.Contains(t, NewDuplicateName("", "users").Error(), `duplicate table name "users"`)
	assert.Contains(t, NewDuplicateName("users", "id").Error(), `duplicate field name "id" in table "users"`)
	assert.Contains(t, NewDanglingReference("relationship fk", "orders", "").Error(), `unknown table "orders"`)
	assert.Contains(t, NewDanglingReference("relationship fk", "orders", "x").Error(), `unknown field "orders"."x"`)
}
