package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashKnownVectors(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		DefaultHasher().HashString(""))

	assert.Equal(t,
		"0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		NewHasher(BLAKE2b).HashString(""))
}

func TestHashReaderMatchesHash(t *testing.T) {
	content := strings.Repeat("homefs ", 10000)

	for _, algo := range []HashAlgorithm{SHA256, BLAKE2b} {
		h := NewHasher(algo)
		sum, n, err := h.HashReader(strings.NewReader(content))
		require.NoError(t, err)
		assert.Equal(t, int64(len(content)), n)
		assert.Equal(t, h.HashString(content), sum)
	}
}

func TestParseHashAlgorithm(t *testing.T) {
	tests := []struct {
		input   string
		want    HashAlgorithm
		wantErr bool
	}{
		{"", SHA256, false},
		{"sha256", SHA256, false},
		{"SHA256", SHA256, false},
		{"blake2b", BLAKE2b, false},
		{"md5", "", true},
	}

	for _, tt := range tests {
		got, err := ParseHashAlgorithm(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}
}
