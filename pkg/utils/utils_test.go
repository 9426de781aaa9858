package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Blog", "my-blog"},
		{"  Trim  Me  ", "trim-me"},
		{"Hello, World!", "hello-world"},
		{"already-slugged", "already-slugged"},
		{"Ünïcode Title", "ncode-title"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestGenerateSlugPatternAndUniqueness(t *testing.T) {
	pattern := regexp.MustCompile(`^my-blog_[a-z]{8}$`)

	first, err := GenerateSlug("My Blog")
	require.NoError(t, err)
	second, err := GenerateSlug("My Blog")
	require.NoError(t, err)

	assert.Regexp(t, pattern, first)
	assert.Regexp(t, pattern, second)
	assert.NotEqual(t, first, second)
}

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")
	SetTokenTTL(time.Hour)

	token, err := GenerateToken("42", "alice", "alice@example.com")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.ID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, NotImplemented, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	SetSecret("one")
	token, err := GenerateToken("1", "bob", "bob@example.com")
	require.NoError(t, err)

	SetSecret("two")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}
