package domain

import (
	"fmt"
	"strings"
)

// Granularity selects the daily or hourly table.
type Granularity int

const (
	Daily Granularity = iota + 1
	Hourly
)

// Granularities lists the supported granularities in display order.
var Granularities = []Granularity{Daily, Hourly}

func (g Granularity) String() string {
	switch g {
	case Daily:
		return "daily"
	case Hourly:
		return "hourly"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// Valid reports whether g is Daily or Hourly.
func (g Granularity) Valid() bool {
	return g == Daily || g == Hourly
}

// ParseGranularity accepts "daily"/"day" and "hourly"/"hour", case-insensitively.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return Daily, nil
	case "hourly", "hour":
		return Hourly, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
}

// MarshalText encodes the granularity by name for JSON and YAML output.
func (g Granularity) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGranularity, int(g))
	}
	return []byte(g.String()), nil
}
