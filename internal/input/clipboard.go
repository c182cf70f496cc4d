package input

import "github.com/atotto/clipboard"

// ClipboardReader returns the current clipboard text.
type ClipboardReader func() (string, error)

// ReadClipboard reads the system clipboard.
func ReadClipboard() (string, error) {
	return clipboard.ReadAll()
}
