package builtin

import (
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Defaults(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	r := NewRegistry(WithClock(func() time.Time { return fixed }))

	v, ok := r.Lookup("$timestamp")
	require.True(t, ok)
	assert.Equal(t, strconv.FormatInt(fixed.Unix(), 10), v)

	v, ok = r.Lookup("$isoTimestamp")
	require.True(t, ok)
	assert.Equal(t, "2024-03-01T12:30:00.000Z", v)

	v, ok = r.Lookup("$guid")
	require.True(t, ok)
	_, err := uuid.Parse(v)
	assert.NoError(t, err)

	v, ok = r.Lookup("$randomInt")
	require.True(t, ok)
	n, err := strconv.Atoi(v)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 0)
	assert.LessOrEqual(t, n, 1000)

	v, ok = r.Lookup("$randomBoolean")
	require.True(t, ok)
	assert.Contains(t, []string{"true", "false"}, v)

	_, ok = r.Lookup("guid")
	assert.False(t, ok, "names are looked up with the $ prefix")
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register("tenant", func() string { return "acme" })

	v, ok := r.Lookup("$tenant")
	require.True(t, ok)
	assert.Equal(t, "acme", v)
	assert.Contains(t, r.Names(), "$tenant")
}
