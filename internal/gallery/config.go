package gallery

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultColumns  = 5
	DefaultPageSize = 50
)

var (
	ColumnChoices   = []int{3, 4, 5, 6, 8, 10}
	PageSizeChoices = []int{20, 30, 50, 100, 200}
)

// Config fields accepted by ChangeConfig.
const (
	FieldColumns  = "images-per-row"
	FieldPageSize = "images-per-page"
	FieldSort     = "sort-order"
)

// ViewConfig is the user's display configuration. It is a value; changes
// produce a new ViewConfig through With.
type ViewConfig struct {
	Columns  int
	PageSize int
	Sort     SortMode
}

func DefaultViewConfig() ViewConfig {
	return ViewConfig{Columns: DefaultColumns, PageSize: DefaultPageSize, Sort: SortNewest}
}

// Normalize replaces out-of-range values with defaults.
func (c ViewConfig) Normalize() ViewConfig {
	def := DefaultViewConfig()
	if !slices.Contains(ColumnChoices, c.Columns) {
		c.Columns = def.Columns
	}
	if !slices.Contains(PageSizeChoices, c.PageSize) {
		c.PageSize = def.PageSize
	}
	if _, ok := ParseSortMode(string(c.Sort)); !ok {
		c.Sort = def.Sort
	}
	return c
}

// With returns a copy of c with field set to value.
func (c ViewConfig) With(field, value string) (ViewConfig, error) {
	value = strings.TrimSpace(value)
	switch field {
	case FieldColumns:
		n, err := strconv.Atoi(value)
		if err != nil || !slices.Contains(ColumnChoices, n) {
			return c, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, field, value)
		}
		c.Columns = n
	case FieldPageSize:
		n, err := strconv.Atoi(value)
		if err != nil || !slices.Contains(PageSizeChoices, n) {
			return c, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, field, value)
		}
		c.PageSize = n
	case FieldSort:
		mode, ok := ParseSortMode(value)
		if !ok {
			return c, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, field, value)
		}
		c.Sort = mode
	default:
		return c, fmt.Errorf("%w: unknown field %q", ErrInvalidConfig, field)
	}
	return c, nil
}
