package renderer

import "github.com/Carmen-Shannon/oxy-csg/common"

// RendererBackendType identifies the output implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeBraille draws into a grid of Unicode braille cells for terminal display.
	BackendTypeBraille RendererBackendType = iota

	// BackendTypeRaster draws anti-aliased triangles into an RGBA image.
	BackendTypeRaster
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeBraille:
		return "braille"
	case BackendTypeRaster:
		return "raster"
	}
	return "unknown"
}

// Triangle is one shaded, screen-space triangle handed to a backend.
// Points are in backend pixel coordinates with the origin at the top-left.
type Triangle struct {
	Points [3][2]float32

	// Depth is the mean clip-space depth, larger is further away.
	Depth float32

	// Color is the lit surface color including opacity in the alpha channel.
	Color common.Color

	// Intensity is the perceived brightness of Color in [0, 1].
	Intensity float32

	// Wireframe requests the triangle edges only.
	Wireframe bool
}

// RendererBackend is the output surface the Renderer draws into.
// Triangles arrive back to front between Clear and Present.
type RendererBackend interface {
	// Type returns the backend type.
	Type() RendererBackendType

	// PixelSize returns the drawable size in backend pixels.
	//
	// Returns:
	//   - width, height: the size in pixels
	PixelSize() (width, height int)

	// Resize changes the output size. The unit is backend specific: cells for braille, pixels for raster.
	//
	// Parameters:
	//   - width: the new width
	//   - height: the new height
	Resize(width, height int)

	// Clear resets the surface to the background.
	Clear()

	// FillTriangle draws a solid triangle.
	//
	// Parameters:
	//   - t: the triangle
	FillTriangle(t Triangle)

	// StrokeTriangle draws the outline of a triangle.
	//
	// Parameters:
	//   - t: the triangle
	StrokeTriangle(t Triangle)

	// Present finishes the frame.
	//
	// Returns:
	//   - error: an error if the frame could not be finalized
	Present() error
}
