// Package config provides configuration loading and parsing for fsbench.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseByteSize parses human-readable sizes like "512", "64k", "500m", "2g".
// Suffixes are powers of 1024 and case-insensitive; "kb"/"mb"/"gb"/"tb" are
// accepted too.
func ParseByteSize(s string) (int64, error) {
	trimmed := strings.TrimSpace(strings.ToLower(s))
	if trimmed == "" {
		return 0, fmt.Errorf("empty size")
	}

	multiplier := int64(1)
	suffixes := []struct {
		suffix string
		mult   int64
	}{
		{"tb", 1 << 40}, {"t", 1 << 40},
		{"gb", 1 << 30}, {"g", 1 << 30},
		{"mb", 1 << 20}, {"m", 1 << 20},
		{"kb", 1 << 10}, {"k", 1 << 10},
		{"b", 1},
	}
	for _, c := range suffixes {
		if strings.HasSuffix(trimmed, c.suffix) {
			multiplier = c.mult
			trimmed = strings.TrimSuffix(trimmed, c.suffix)
			break
		}
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if value < 0 {
		return 0, fmt.Errorf("size cannot be negative: %q", s)
	}
	return int64(value * float64(multiplier)), nil
}

// FormatByteSize renders a byte count with the largest whole-unit suffix,
// for log and report lines.
func FormatByteSize(n int64) string {
	switch {
	case n >= 1<<40 && n%(1<<40) == 0:
		return strconv.FormatInt(n>>40, 10) + "t"
	case n >= 1<<30 && n%(1<<30) == 0:
		return strconv.FormatInt(n>>30, 10) + "g"
	case n >= 1<<20 && n%(1<<20) == 0:
		return strconv.FormatInt(n>>20, 10) + "m"
	case n >= 1<<10 && n%(1<<10) == 0:
		return strconv.FormatInt(n>>10, 10) + "k"
	default:
		return strconv.FormatInt(n, 10)
	}
}
