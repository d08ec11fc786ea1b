package gallery

import "github.com/atotto/clipboard"

type Clipboard interface {
	Copy(text string) error
}

// SystemClipboard writes to the clipboard of the machine running the server.
type SystemClipboard struct{}

func (SystemClipboard) Copy(text string) error {
	return clipboard.WriteAll(text)
}
