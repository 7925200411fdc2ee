package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	before := time.Now()
	tok := NewToken(Draft{Name: "user_token", Value: "abc", Source: SourceExtracted})

	_, err := uuid.Parse(tok.ID)
	require.NoError(t, err)
	assert.Equal(t, "user_token", tok.Name)
	assert.Equal(t, "abc", tok.Value)
	assert.Equal(t, SourceExtracted, tok.Source)
	assert.False(t, tok.CreatedAt.Before(before))
	assert.Equal(t, tok.CreatedAt, tok.UpdatedAt)

	assert.Equal(t, SourceManual, NewToken(Draft{Name: "a", Value: "b"}).Source)
}

func TestDraftValid(t *testing.T) {
	assert.True(t, Draft{Name: "a", Value: "b"}.Valid())
	assert.False(t, Draft{Name: "  ", Value: "b"}.Valid())
	assert.False(t, Draft{Name: "a", Value: "\t"}.Valid())

	d := Draft{Name: " a ", Value: " b\n"}.Normalize()
	assert.Equal(t, "a", d.Name)
	assert.Equal(t, "b", d.Value)
}

func TestMask(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{"", ""},
		{"short", "short"},
		{"12345678", "12345678"},
		{"123456789", "••••6789"},
		{"eyJhbGciOiJIUzI1NiJ9.payload.sig", "••••.sig"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, Mask(tt.value))
		})
	}

	assert.Equal(t, "••••6789", Token{Value: "123456789"}.Masked())
}

func TestExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	got, ok := Token{Value: signed}.ExpiresAt()
	require.True(t, ok)
	assert.True(t, exp.Equal(got), "got %v, want %v", got, exp)

	got, ok = ExpiresAt("Bearer " + signed)
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, ok = ExpiresAt(noExp)
	assert.False(t, ok)

	_, ok = ExpiresAt("opaque-token-value")
	assert.False(t, ok)

	_, ok = ExpiresAt("a.b.c")
	assert.False(t, ok)
}
