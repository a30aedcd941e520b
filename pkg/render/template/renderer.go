package template

import (
	"io"
)

// Renderer is the seam notice rendering relies on. Implementations load named
// templates; values set through GlobalContext are visible to every template
// unless the render data carries the same key.
type Renderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	GlobalContext(data any) error
}
