package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflake_Generate(t *testing.T) {
	s, err := NewSnowflake(3)
	require.NoError(t, err)

	seen := make(map[int64]bool)
	last := int64(0)
	for i := 0; i < 10000; i++ {
		id := s.Generate()
		assert.False(t, seen[id])
		assert.Greater(t, id, last)
		seen[id] = true
		last = id
	}
	assert.Equal(t, int64(3), (last>>workerIDShift)&maxWorkerID)
}

func TestSnowflake_ClockStepBack(t *testing.T) {
	s, err := NewSnowflake(1)
	require.NoError(t, err)

	clock := epoch + 1000
	s.now = func() int64 { return clock }
	first := s.Generate()
	clock -= 500
	second := s.Generate()
	assert.Greater(t, second, first)
}

func TestNewSnowflake_RejectsWorkerID(t *testing.T) {
	_, err := NewSnowflake(maxWorkerID + 1)
	assert.Error(t, err)
	_, err = NewSnowflake(-1)
	assert.Error(t, err)
}

func TestGenerateEventNo(t *testing.T) {
	a, b := GenerateEventNo(), GenerateEventNo()
	assert.True(t, strings.HasPrefix(a, "EVT"))
	assert.Len(t, a, len("EVT20240115143052_00012345"))
	assert.NotEqual(t, a, b)
}
