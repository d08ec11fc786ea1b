package gallery

type State string

const (
	StateLoading   State = "loading"
	StateHydrating State = "hydrating"
	StateReady     State = "ready"
	StateEnriched  State = "enriched"
	StateEmpty     State = "empty"
	StateFailed    State = "failed"
)

// Progress counts blocks hydrated and records enriched so far.
type Progress struct {
	Hydrated    int `json:"hydrated"`
	Total       int `json:"total"`
	Enriched    int `json:"enriched"`
	EnrichTotal int `json:"enrichTotal"`
	Images      int `json:"images"`
}

// View is everything a renderer needs to draw one page of the gallery.
type View struct {
	SessionID     string
	State         State
	Config        ViewConfig
	Page          PageInfo
	Columns       [][]Tile
	Term          string
	SearchEnabled bool
	Matches       int
	Progress      Progress
	Version       uint64
}

// NoImages reports the terminal "nothing found" state.
func (v View) NoImages() bool {
	return v.State == StateEmpty || v.State == StateFailed
}

func (v View) Loading() bool {
	return v.State == StateLoading || v.State == StateHydrating
}

// Renderer draws views. Render is a full redraw; Status only refreshes
// progress and toolbar state and must not disturb the visible page.
type Renderer interface {
	Render(v View)
	Status(v View)
}

func buildView(all []ImageRecord, version uint64, cfg ViewConfig, page int, term string) View {
	filtered := FilterImages(all, term, cfg.Sort)
	info := Paginate(len(filtered), page, cfg.PageSize)
	return View{
		Config:  cfg,
		Page:    info,
		Columns: Balance(filtered[info.Start:info.End], cfg.Columns),
		Term:    term,
		Matches: len(filtered),
		Version: version,
	}
}
