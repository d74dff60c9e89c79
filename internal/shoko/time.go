package shoko

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order. Shoko emits RFC3339 for most instants but
// falls back to zone-less local times and bare dates for AniDB-sourced values.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is an instant as serialized by Shoko Server
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses any of the instant formats Shoko is known to emit.
// Values without a zone are interpreted as UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// timePtr returns a copy of the wrapped instant, or nil for a nil receiver
func (t *Timestamp) timePtr() *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}

func timestampPtr(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	return &Timestamp{Time: *t}
}

// Duration is a length of time serialized the way Shoko serializes a TimeSpan:
// "[-][d.]hh:mm:ss[.fffffff]".
type Duration struct {
	time.Duration
}

// NewDuration wraps d
func NewDuration(d time.Duration) Duration {
	return Duration{Duration: d}
}

// ParseDuration parses a TimeSpan string
func ParseDuration(s string) (Duration, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Duration{}, fmt.Errorf("invalid duration %q", s)
	}

	negative := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")

	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return Duration{}, fmt.Errorf("invalid duration %q", s)
	}

	var days int64
	hoursPart := parts[0]
	if idx := strings.Index(hoursPart, "."); idx >= 0 {
		d, err := strconv.ParseInt(hoursPart[:idx], 10, 64)
		if err != nil {
			return Duration{}, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		days = d
		hoursPart = hoursPart[idx+1:]
	}

	hours, err := strconv.ParseInt(hoursPart, 10, 64)
	if err != nil || hours > 23 {
		return Duration{}, fmt.Errorf("invalid duration %q", s)
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || minutes > 59 {
		return Duration{}, fmt.Errorf("invalid duration %q", s)
	}

	secondsPart := parts[2]
	var ticks int64
	if idx := strings.Index(secondsPart, "."); idx >= 0 {
		frac := secondsPart[idx+1:]
		if frac == "" || len(frac) > 7 {
			return Duration{}, fmt.Errorf("invalid duration %q", s)
		}
		frac += strings.Repeat("0", 7-len(frac))
		ticks, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return Duration{}, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		secondsPart = secondsPart[:idx]
	}
	seconds, err := strconv.ParseInt(secondsPart, 10, 64)
	if err != nil || seconds > 59 {
		return Duration{}, fmt.Errorf("invalid duration %q", s)
	}

	total := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(ticks)*100*time.Nanosecond
	if negative {
		total = -total
	}
	return Duration{Duration: total}, nil
}

// String formats the duration as a TimeSpan string
func (d Duration) String() string {
	v := d.Duration
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	days := v / (24 * time.Hour)
	v -= days * 24 * time.Hour
	hours := v / time.Hour
	v -= hours * time.Hour
	minutes := v / time.Minute
	v -= minutes * time.Minute
	seconds := v / time.Second
	v -= seconds * time.Second
	ticks := int64(v / (100 * time.Nanosecond))

	out := fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	if days > 0 {
		out = fmt.Sprintf("%d.%s", days, out)
	}
	if ticks > 0 {
		out = fmt.Sprintf("%s.%07d", out, ticks)
	}
	return sign + out
}

// Ticks returns the duration in .NET ticks (100ns units)
func (d Duration) Ticks() int64 {
	return int64(d.Duration / (100 * time.Nanosecond))
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}

	parsed, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
