package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstant(t *testing.T) {
	t.Parallel()

	t.Run("device convention and ISO text agree", func(t *testing.T) {
		t.Parallel()
		device, ok := ParseInstant("05.03.2024 10:15:30 UTC")
		require.True(t, ok)
		iso, ok := ParseInstant("2024-03-05T10:15:30 UTC")
		require.True(t, ok)
		rfc, ok := ParseInstant("2024-03-05T10:15:30Z")
		require.True(t, ok)

		assert.True(t, device.Equal(iso))
		assert.True(t, iso.Equal(rfc))
		assert.Equal(t, "2024-03-05T10:15:30Z", device.Canonical())
	})

	t.Run("offset form normalizes to UTC", func(t *testing.T) {
		t.Parallel()
		got, ok := ParseInstant("2024-03-05T12:15:30+02:00")
		require.True(t, ok)
		assert.Equal(t, "2024-03-05T10:15:30Z", got.Canonical())
	})

	t.Run("space-separated ISO", func(t *testing.T) {
		t.Parallel()
		got, ok := ParseInstant("2024-03-05 10:15:30 UTC")
		require.True(t, ok)
		assert.Equal(t, "2024-03-05T10:15:30Z", got.Canonical())
	})

	t.Run("garbage yields no instant", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{
			"",
			"   ",
			"not a date",
			"99.99.2024 10:00:00 UTC",
			"2024-13-45T99:00:00Z",
			"12345",
		} {
			_, ok := ParseInstant(raw)
			assert.False(t, ok, "input %q", raw)
		}
	})

	t.Run("ordering", func(t *testing.T) {
		t.Parallel()
		a, _ := ParseInstant("05.03.2024 10:00:00 UTC")
		b, _ := ParseInstant("2024-03-05T10:00:05Z")
		assert.True(t, a.Before(b))
		assert.True(t, b.After(a))
		assert.Equal(t, 5*time.Second, b.Sub(a))
	})
}

func TestInstantJSON(t *testing.T) {
	t.Parallel()

	i := NewInstant(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))
	b, err := i.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-05T10:00:00Z"`, string(b))

	var back Instant
	require.NoError(t, back.UnmarshalJSON(b))
	assert.True(t, back.Equal(i))

	var zero Instant
	require.NoError(t, zero.UnmarshalJSON([]byte(`"garbage"`)))
	assert.True(t, zero.IsZero())
}
