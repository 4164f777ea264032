package core

import (
	"context"
	"image"
)

// Renderer loads a document and rasterizes its pages. Implementations are
// external collaborators; core only needs the page count to seed sessions.
type Renderer interface {
	Load(ctx context.Context, path string) error
	PageCount() int
	Render(ctx context.Context, page int, size image.Point) (image.Image, error)
}
