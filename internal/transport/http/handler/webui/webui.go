package webui

import (
	"io/fs"

	"github.com/mandalnilabja/flowrelay/web"
)

// Handlers serves the embedded chat page.
type Handlers struct {
	FS fs.FS
}

// New creates web UI handlers backed by the embedded assets.
func New() *Handlers {
	return &Handlers{FS: web.FS}
}
