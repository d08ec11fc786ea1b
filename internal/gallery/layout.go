package gallery

const (
	tileBaseHeight    = 240
	tileCaptionLine   = 18
	tileCaptionPerRow = 28
)

type PageInfo struct {
	Page       int
	PageSize   int
	TotalPages int
	TotalItems int
	Start      int
	End        int
}

func (p PageInfo) HasPrev() bool { return p.Page > 1 }
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }
func (p PageInfo) Prev() int     { return max(p.Page-1, 1) }
func (p PageInfo) Next() int     { return min(p.Page+1, p.TotalPages) }

// Paginate clamps page into range and returns the slice bounds for it.
// There is always at least one page, even for an empty list.
func Paginate(total, page, pageSize int) PageInfo {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	page = min(max(page, 1), pages)
	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	if start > total {
		start = total
	}
	return PageInfo{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
		TotalItems: total,
		Start:      start,
		End:        end,
	}
}

type Tile struct {
	Record ImageRecord
	// Position is the index of the record on the current page.
	Position int
}

// Balance deals records into columns, always placing the next record in the
// currently shortest column. Real image sizes are unknown at this point, so
// heights are estimated from the caption length.
func Balance(records []ImageRecord, columns int) [][]Tile {
	if columns <= 0 {
		columns = DefaultColumns
	}
	cols := make([][]Tile, columns)
	heights := make([]int, columns)
	for i, rec := range records {
		shortest := 0
		for c := 1; c < columns; c++ {
			if heights[c] < heights[shortest] {
				shortest = c
			}
		}
		cols[shortest] = append(cols[shortest], Tile{Record: rec, Position: i})
		heights[shortest] += estimateTileHeight(rec)
	}
	return cols
}

func estimateTileHeight(rec ImageRecord) int {
	lines := 1 + len([]rune(rec.AltText))/tileCaptionPerRow
	return tileBaseHeight + lines*tileCaptionLine
}
