package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Source records where a token value came from.
type Source string

const (
	SourceManual    Source = "manual"
	SourceExtracted Source = "extracted"
	SourceImported  Source = "imported"
)

// Token is a named credential. Its name is referenced in requests as {{name}}
// and takes priority over environment variables with the same key.
type Token struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Value     string    `json:"value" yaml:"value"`
	Source    Source    `json:"source" yaml:"source"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Draft is a token that has not been stored yet.
type Draft struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source Source `json:"source"`
}

// NewToken assigns an ID and timestamps to a draft.
func NewToken(d Draft) Token {
	now := time.Now()
	source := d.Source
	if source == "" {
		source = SourceManual
	}
	return Token{
		ID:        uuid.NewString(),
		Name:      d.Name,
		Value:     d.Value,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Valid reports whether the draft has a non-blank name and value.
func (d Draft) Valid() bool {
	return strings.TrimSpace(d.Name) != "" && strings.TrimSpace(d.Value) != ""
}

// Normalize trims surrounding whitespace from name and value.
func (d Draft) Normalize() Draft {
	d.Name = strings.TrimSpace(d.Name)
	d.Value = strings.TrimSpace(d.Value)
	return d
}

// Masked returns the token value in its display form.
func (t Token) Masked() string {
	return Mask(t.Value)
}

// ExpiresAt returns the expiry of a JWT-shaped value. The signature is not
// verified; ok is false when the value is not a JWT or carries no exp claim.
func (t Token) ExpiresAt() (time.Time, bool) {
	return ExpiresAt(t.Value)
}

// ExpiresAt reads the exp claim of a JWT without verifying it.
func ExpiresAt(value string) (time.Time, bool) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "Bearer ")
	if strings.Count(value, ".") != 2 {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(value, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Mask hides all but the last four characters of values longer than eight
// characters. Shorter values are returned unchanged.
func Mask(value string) string {
	runes := []rune(value)
	if len(runes) <= 8 {
		return value
	}
	return "••••" + string(runes[len(runes)-4:])
}
