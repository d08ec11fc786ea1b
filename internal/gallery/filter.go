package gallery

import "strings"

// FilterImages keeps the records whose corpus contains term, case-insensitive,
// then orders them by mode. The term is matched as typed, surrounding spaces
// included; a blank term keeps everything.
func FilterImages(images []ImageRecord, term string, mode SortMode) []ImageRecord {
	if strings.TrimSpace(term) == "" {
		return SortImages(images, mode)
	}
	lower := strings.ToLower(term)
	matched := make([]ImageRecord, 0, len(images))
	for _, rec := range images {
		if rec.Matches(lower) {
			matched = append(matched, rec)
		}
	}
	return SortImages(matched, mode)
}
