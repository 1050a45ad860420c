package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkotelnikov/accountd/internal/server/models"
)

func TestIssue(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	i := &Issuer{now: func() time.Time { return base }}

	tok, err := i.Issue("alice@example.com", models.TokenTypeRefresh, 30*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", tok.EmailAddress)
	assert.Equal(t, models.TokenTypeRefresh, tok.Type)
	assert.Equal(t, base.Add(30*time.Minute), tok.Expiration)
	assert.Len(t, tok.Value, 64)
}

func TestIssue_ValuesAreUnique(t *testing.T) {
	i := NewIssuer()
	seen := map[string]bool{}
	for n := 0; n < 100; n++ {
		tok, err := i.Issue("a@b.c", models.TokenTypeEmail, time.Hour)
		require.NoError(t, err)
		require.False(t, seen[tok.Value], "duplicate token value")
		seen[tok.Value] = true
	}
}
