package passwd

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVerify_RoundTrip(t *testing.T) {
	h, err := New(StrategyRandom, 0)
	require.NoError(t, err)

	encoded, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)

	ok, err := h.Verify("correct horse battery staple", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("correct horse battery staples", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_SaltUniqueness(t *testing.T) {
	h, err := New(StrategyFixed, 10)
	require.NoError(t, err)

	a, err := h.Hash("hunter2")
	require.NoError(t, err)
	b, err := h.Hash("hunter2")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "independent salts must yield different records")
}

func TestHash_RecordShape(t *testing.T) {
	h, err := New(StrategyFixed, 42)
	require.NoError(t, err)

	encoded, err := h.Hash("pw")
	require.NoError(t, err)

	parts := strings.Split(encoded, ":")
	require.Len(t, parts, 3)
	assert.Equal(t, "42", parts[1])
	// 32-byte key hex encoded
	assert.Len(t, parts[2], 64)
}

func TestHash_RandomIterationsInRange(t *testing.T) {
	h, err := New(StrategyRandom, 0)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		encoded, err := h.Hash("pw")
		require.NoError(t, err)
		parts := strings.Split(encoded, ":")
		require.Len(t, parts, 3)
		n, err := strconv.Atoi(parts[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 1000)
	}
}

func TestVerify_MalformedRecord(t *testing.T) {
	h, err := New(StrategyRandom, 0)
	require.NoError(t, err)

	for _, record := range []string{"", "salt", "salt:abc:digest", "salt:0:digest", "salt:10"} {
		_, err := h.Verify("pw", record)
		assert.Error(t, err, "record %q", record)
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(StrategyFixed, 0)
	assert.Error(t, err)

	_, err = New(Strategy("argon"), 1)
	assert.Error(t, err)
}
