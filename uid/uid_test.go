package uid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultGenerators(t *testing.T) {
	ints := NewIntGenerator()
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		id := ints.Generate()
		assert.Greater(t, id, int64(0))
		assert.False(t, seen[id])
		seen[id] = true
	}

	strs := NewStrGenerator()
	assert.Len(t, strs.Generate(), 32)
	assert.NotEqual(t, strs.Generate(), strs.Generate())
}
