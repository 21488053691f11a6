package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	t.Parallel()

	s1, err := MakeRandHexString(16)
	require.NoError(t, err)
	assert.Len(t, s1, 32)

	s2, err := MakeRandHexString(16)
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}

func TestWipeByteArray(t *testing.T) {
	t.Parallel()

	b := []byte("Sup3rSecret")
	WipeByteArray(b)
	for i := range b {
		assert.Zero(t, b[i])
	}

	// nil must not panic
	WipeByteArray(nil)
}
