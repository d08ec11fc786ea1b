package gallery

import "errors"

var (
	ErrSearchDisabled = errors.New("search is disabled until all blocks are loaded")
	ErrInvalidConfig  = errors.New("invalid gallery config")
	ErrImageNotFound  = errors.New("image not found")
	ErrSessionClosed  = errors.New("gallery session closed")
)

// Intent is a user action against an open gallery.
type Intent interface {
	intent()
}

type OpenLightbox struct{ ImageID string }

type GoToSource struct{ BlockUID string }

type ChangeConfig struct {
	Field string
	Value string
}

type Search struct{ Term string }

type SetPage struct{ Page int }

type CopyImage struct{ ImageID string }

func (OpenLightbox) intent() {}
func (GoToSource) intent()   {}
func (ChangeConfig) intent() {}
func (Search) intent()       {}
func (SetPage) intent()      {}
func (CopyImage) intent()    {}

// Effect is what the caller should do after an intent was handled. At most
// one of its fields is set.
type Effect struct {
	// Lightbox is the image to show full screen.
	Lightbox *ImageRecord
	// Redirect is where the user should go to see a source block.
	Redirect string
	// Notice is short feedback for the user, e.g. after a copy.
	Notice *Notice
	// View is the refreshed view after a config, page or search change.
	View *View
}

type Notice struct {
	Message string
	Failed  bool
}
