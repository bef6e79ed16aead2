package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"sync"

	"cogentcore.org/core/math32"
	"github.com/Carmen-Shannon/oxy-csg/common"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// rasterBackend draws anti-aliased triangles with a vector rasterizer into an RGBA canvas.
// With supersampling the canvas is larger than the output and is filtered down on Present.
type rasterBackend struct {
	mu *sync.Mutex

	width, height int
	supersample   int
	background    common.Color
	lineWidth     float32

	canvas *image.RGBA
	out    *image.RGBA
	z      *vector.Rasterizer
}

// RasterBackend is a RendererBackend that produces an image.
type RasterBackend interface {
	RendererBackend

	// Image returns a copy of the last presented frame.
	//
	// Returns:
	//   - *image.RGBA: the frame, or nil if nothing was presented yet
	Image() *image.RGBA

	// EncodePNG writes the last presented frame as PNG.
	//
	// Parameters:
	//   - w: the destination
	//
	// Returns:
	//   - error: an error if no frame was presented or encoding fails
	EncodePNG(w io.Writer) error

	// SavePNG writes the last presented frame to a PNG file.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - error: an error if the file cannot be written
	SavePNG(path string) error
}

var _ RasterBackend = &rasterBackend{}

// RasterBackendOption configures a raster backend.
type RasterBackendOption func(*rasterBackend)

// WithBackground sets the clear color.
//
// Parameters:
//   - c: the background color
//
// Returns:
//   - RasterBackendOption: a function that applies the background option
func WithBackground(c common.Color) RasterBackendOption {
	return func(b *rasterBackend) {
		b.background = c
	}
}

// WithSupersample renders at n times the output resolution and filters down on Present.
//
// Parameters:
//   - n: the supersampling factor (values below 1 are treated as 1)
//
// Returns:
//   - RasterBackendOption: a function that applies the supersample option
func WithSupersample(n int) RasterBackendOption {
	return func(b *rasterBackend) {
		b.supersample = max(n, 1)
	}
}

// WithLineWidth sets the stroke width used for wireframe triangles, in output pixels.
//
// Parameters:
//   - w: the width
//
// Returns:
//   - RasterBackendOption: a function that applies the line width option
func WithLineWidth(w float32) RasterBackendOption {
	return func(b *rasterBackend) {
		if w > 0 {
			b.lineWidth = w
		}
	}
}

// NewRasterBackend creates a raster backend producing width x height images.
//
// Parameters:
//   - width: the output width in pixels
//   - height: the output height in pixels
//   - options: functional options
//
// Returns:
//   - RasterBackend: the backend
func NewRasterBackend(width, height int, options ...RasterBackendOption) RasterBackend {
	b := &rasterBackend{
		mu:          &sync.Mutex{},
		supersample: 1,
		background:  common.Color{0.07, 0.07, 0.09, 1},
		lineWidth:   1,
		z:           &vector.Rasterizer{},
	}
	for _, opt := range options {
		opt(b)
	}
	b.Resize(width, height)
	return b
}

func (b *rasterBackend) Type() RendererBackendType {
	return BackendTypeRaster
}

func (b *rasterBackend) PixelSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width * b.supersample, b.height * b.supersample
}

func (b *rasterBackend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = max(width, 0), max(height, 0)
	b.canvas = image.NewRGBA(image.Rect(0, 0, b.width*b.supersample, b.height*b.supersample))
	b.out = nil
}

func (b *rasterBackend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	draw.Draw(b.canvas, b.canvas.Bounds(), image.NewUniform(toNRGBA(b.background)), image.Point{}, draw.Src)
}

func (b *rasterBackend) FillTriangle(t Triangle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := b.canvas.Bounds().Size()
	if size.X == 0 || size.Y == 0 {
		return
	}
	b.z.Reset(size.X, size.Y)
	b.z.DrawOp = draw.Over
	b.z.MoveTo(t.Points[0][0], t.Points[0][1])
	b.z.LineTo(t.Points[1][0], t.Points[1][1])
	b.z.LineTo(t.Points[2][0], t.Points[2][1])
	b.z.ClosePath()
	b.z.Draw(b.canvas, b.canvas.Bounds(), image.NewUniform(toNRGBA(t.Color)), image.Point{})
}

func (b *rasterBackend) StrokeTriangle(t Triangle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := b.canvas.Bounds().Size()
	if size.X == 0 || size.Y == 0 {
		return
	}
	half := b.lineWidth * float32(b.supersample) / 2
	src := image.NewUniform(toNRGBA(t.Color))
	for i := range 3 {
		p, q := t.Points[i], t.Points[(i+1)%3]
		dx, dy := q[0]-p[0], q[1]-p[1]
		l := math32.Sqrt(dx*dx + dy*dy)
		if l == 0 {
			continue
		}
		inv := half / l
		nx, ny := -dy*inv, dx*inv

		b.z.Reset(size.X, size.Y)
		b.z.DrawOp = draw.Over
		b.z.MoveTo(p[0]+nx, p[1]+ny)
		b.z.LineTo(q[0]+nx, q[1]+ny)
		b.z.LineTo(q[0]-nx, q[1]-ny)
		b.z.LineTo(p[0]-nx, p[1]-ny)
		b.z.ClosePath()
		b.z.Draw(b.canvas, b.canvas.Bounds(), src, image.Point{})
	}
}

func (b *rasterBackend) Present() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.width == 0 || b.height == 0 {
		return ErrEmptyViewport
	}
	out := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	if b.supersample == 1 {
		copy(out.Pix, b.canvas.Pix)
	} else {
		draw.CatmullRom.Scale(out, out.Bounds(), b.canvas, b.canvas.Bounds(), draw.Src, nil)
	}
	b.out = out
	return nil
}

func (b *rasterBackend) Image() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.out == nil {
		return nil
	}
	cp := image.NewRGBA(b.out.Bounds())
	copy(cp.Pix, b.out.Pix)
	return cp
}

func (b *rasterBackend) EncodePNG(w io.Writer) error {
	img := b.Image()
	if img == nil {
		return fmt.Errorf("encode png: no frame presented")
	}
	return png.Encode(w, img)
}

func (b *rasterBackend) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	if err := b.EncodePNG(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("save png: %w", err)
	}
	return f.Close()
}

func toNRGBA(c common.Color) color.NRGBA {
	r, g, b, a := c.RGBA8()
	return color.NRGBA{R: r, G: g, B: b, A: a}
}
