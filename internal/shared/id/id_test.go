package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()
	assert.NotEqual(t, gen.Generate(), gen.Generate())
	assert.Len(t, gen.GenerateString(), 26)
}

func TestTypedIDs(t *testing.T) {
	req := NewRequestID()
	op := NewOperationID()

	assert.True(t, strings.HasPrefix(req.String(), "req_"))
	assert.True(t, strings.HasPrefix(op.String(), "op_"))
	assert.True(t, IsValidPrefixed(req.String(), RequestPrefix))
	assert.False(t, IsValidPrefixed(op.String(), RequestPrefix))
}

func TestIsValidPrefixed(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"req_" + NewGenerator().GenerateString(), true},
		{"req_not-a-ulid", false},
		{"req", false},
		{"", false},
		{NewGenerator().GenerateString(), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidPrefixed(tt.input, RequestPrefix), tt.input)
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	reqID := NewRequestID()

	ts, err := Timestamp(reqID.String())
	require.NoError(t, err)
	assert.True(t, ts.After(before))
	assert.True(t, ts.Before(time.Now().Add(time.Second)))

	_, err = Timestamp("req_garbage")
	assert.Error(t, err)
}

func TestConcurrentGeneration(t *testing.T) {
	const goroutines, perGoroutine = 8, 200

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, goroutines*perGoroutine)
		wg   sync.WaitGroup
	)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				s := string(NewOperationID())
				mu.Lock()
				seen[s] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine)
}
