// Package track models device trajectories: canonical instants, telemetry
// snapshots, the persisted GeoJSON track shape, track flattening, and the
// time-indexed state store used for scrubbing.
package track

import (
	"regexp"
	"strings"
	"time"
)

// Instant is a canonical, totally-ordered point in time. Two instants
// parsed from different textual conventions compare equal when they name
// the same moment; the canonical text form is RFC 3339 UTC.
type Instant struct {
	t time.Time
}

// NewInstant wraps t as a canonical UTC instant.
func NewInstant(t time.Time) Instant {
	return Instant{t: t.UTC()}
}

// Time returns the underlying UTC time.
func (i Instant) Time() time.Time { return i.t }

// IsZero reports whether the instant is the zero value.
func (i Instant) IsZero() bool { return i.t.IsZero() }

// Before reports whether i is strictly earlier than o.
func (i Instant) Before(o Instant) bool { return i.t.Before(o.t) }

// After reports whether i is strictly later than o.
func (i Instant) After(o Instant) bool { return i.t.After(o.t) }

// Equal reports whether i and o name the same moment.
func (i Instant) Equal(o Instant) bool { return i.t.Equal(o.t) }

// Sub returns the duration i-o.
func (i Instant) Sub(o Instant) time.Duration { return i.t.Sub(o.t) }

// Canonical returns the canonical RFC 3339 UTC text for the instant. This
// is the only textual form the engine ever emits.
func (i Instant) Canonical() string { return i.t.UTC().Format(time.RFC3339) }

func (i Instant) String() string { return i.Canonical() }

// MarshalJSON emits the canonical text form.
func (i Instant) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.Canonical() + `"`), nil
}

// UnmarshalJSON accepts any textual form ParseInstant accepts.
func (i *Instant) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, ok := ParseInstant(s)
	if !ok {
		// Unparseable instants decode to the zero value rather than
		// failing the whole document; callers check IsZero.
		*i = Instant{}
		return nil
	}
	*i = parsed
	return nil
}

// dayMonthYear matches numeric DD.MM.YYYY dates with an arbitrary
// time-of-day remainder.
var dayMonthYear = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})(.*)$`)

// instantLayouts are tried in order after textual normalization. Layouts
// without a zone designator parse as UTC.
var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseInstant parses heterogeneous timestamp text into a canonical
// Instant. Two upstream conventions are normalized before parsing:
//
//   - a literal "UTC" suffix standing in for a zone offset (both the
//     device convention "02.01.2006 15:04:05 UTC" and ISO text ending in
//     "UTC") is substituted with the "Z" designator;
//   - DD.MM.YYYY numeric dates are reordered to YYYY-MM-DD.
//
// Text that still fails generic parsing returns ok=false. That is a
// recoverable "no instant" outcome, not an error: the caller discards the
// sample or vertex and carries on.
func ParseInstant(raw string) (Instant, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Instant{}, false
	}
	if strings.HasSuffix(s, "UTC") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "UTC")) + "Z"
	}
	if m := dayMonthYear.FindStringSubmatch(s); m != nil {
		s = m[3] + "-" + m[2] + "-" + m[1] + m[4]
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Instant{t: t.UTC()}, true
		}
	}
	return Instant{}, false
}
