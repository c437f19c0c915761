package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	id := Generate()

	assert.True(t, strings.HasPrefix(id, "job-"))
	assert.True(t, Valid(id))
	assert.NotEqual(t, id, Generate())
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Generate()
		assert.False(t, seen[id], "duplicate ID generated: %s", id)
		seen[id] = true
	}
}

func TestValid(t *testing.T) {
	assert.False(t, Valid(""))
	assert.False(t, Valid("job-"))
	assert.False(t, Valid("job-123"))
	assert.False(t, Valid("task-6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	assert.True(t, Valid("job-6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
}
