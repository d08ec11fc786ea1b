package gallery

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortMode string

const (
	SortNewest      SortMode = "newest"
	SortOldest      SortMode = "oldest"
	SortPageAlpha   SortMode = "page-alpha"
	SortPageReverse SortMode = "page-reverse"
)

var SortModes = []SortMode{SortNewest, SortOldest, SortPageAlpha, SortPageReverse}

func ParseSortMode(raw string) (SortMode, bool) {
	mode := SortMode(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range SortModes {
		if mode == known {
			return mode, true
		}
	}
	return SortNewest, false
}

func (m SortMode) Label() string {
	switch m {
	case SortOldest:
		return "Oldest first"
	case SortPageAlpha:
		return "Page A-Z"
	case SortPageReverse:
		return "Page Z-A"
	default:
		return "Newest first"
	}
}

// SortImages returns a new slice ordered by mode. Equal keys keep their input
// order. Records without a creation time go last for both time orders.
func SortImages(images []ImageRecord, mode SortMode) []ImageRecord {
	out := slices.Clone(images)
	switch mode {
	case SortOldest:
		slices.SortStableFunc(out, func(a, b ImageRecord) int { return compareCreated(a, b, false) })
	case SortPageAlpha, SortPageReverse:
		col := collate.New(language.Und)
		reverse := mode == SortPageReverse
		slices.SortStableFunc(out, func(a, b ImageRecord) int {
			c := col.CompareString(a.PageTitle, b.PageTitle)
			if reverse {
				return -c
			}
			return c
		})
	default:
		slices.SortStableFunc(out, func(a, b ImageRecord) int { return compareCreated(a, b, true) })
	}
	return out
}

func compareCreated(a, b ImageRecord, desc bool) int {
	switch {
	case a.CreatedAt == nil && b.CreatedAt == nil:
		return 0
	case a.CreatedAt == nil:
		return 1
	case b.CreatedAt == nil:
		return -1
	}
	x, y := *a.CreatedAt, *b.CreatedAt
	if desc {
		x, y = y, x
	}
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
