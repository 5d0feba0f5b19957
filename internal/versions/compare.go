// Package versions orders dotted version strings and diffs dependency maps.
// Everything here is pure and safe for concurrent use.
package versions

import (
	"errors"
	"strconv"
	"strings"
)

// Ordering is the three-way result of comparing two versions
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Greater:
		return "greater"
	default:
		return "equal"
	}
}

// Compare orders two dotted numeric versions component by component.
// Missing components count as zero, so "1.2" equals "1.2.0". A component
// that is not a plain integer (including pre-release suffixes such as
// "0-beta") counts as zero. Components too large for int64 saturate.
func Compare(a, b string) Ordering {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := range max(len(aParts), len(bParts)) {
		x := component(aParts, i)
		y := component(bParts, i)
		if x < y {
			return Less
		}
		if x > y {
			return Greater
		}
	}

	return Equal
}

// IsNewer reports whether candidate orders after current
func IsNewer(candidate, current string) bool {
	return Compare(candidate, current) == Greater
}

func component(parts []string, i int) int64 {
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(parts[i]), 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		// ParseInt has already clamped n to the int64 bounds
		return n
	}
	if err != nil {
		return 0
	}
	return n
}
