package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/simplex/config"
)

func TestSnowflakeGeneratorUnique(t *testing.T) {
	g, err := NewGenerator(config.SnowflakeConfig{Type: "snowflake", MachineID: 3})
	require.NoError(t, err)

	const n = 2000
	seen := make(map[int64]struct{}, n)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < n/4; j++ {
				id := g.Generate()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

func TestSonyflakeGenerator(t *testing.T) {
	g, err := NewGenerator(config.SnowflakeConfig{Type: "sonyflake", MachineID: 7, StartTime: "2024-01-01"})
	require.NoError(t, err)

	a, b := g.Generate(), g.Generate()
	assert.Positive(t, a)
	assert.Greater(t, b, a)
}

func TestNewGeneratorErrors(t *testing.T) {
	_, err := NewGenerator(config.SnowflakeConfig{Type: "uuid"})
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = NewGenerator(config.SnowflakeConfig{Type: "sonyflake", MachineID: 70000})
	assert.ErrorIs(t, err, ErrInvalidMachineID)

	_, err = NewGenerator(config.SnowflakeConfig{StartTime: "01/02/2024"})
	assert.ErrorIs(t, err, ErrParseTime)

	_, err = NewGenerator(config.SnowflakeConfig{MachineID: 5000})
	assert.ErrorIs(t, err, ErrCreateNode)
}

func TestGenSolveID(t *testing.T) {
	require.NoError(t, Init(config.SnowflakeConfig{MachineID: 2}))

	id := GenSolveID()
	assert.True(t, strings.HasPrefix(id, "LP"))
	assert.NotEqual(t, id, GenSolveID())
	assert.NotEmpty(t, GenIDString())
}
