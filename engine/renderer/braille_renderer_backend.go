package renderer

import (
	"math"
	"strings"
	"sync"
)

// bayer4 is a 4x4 ordered-dither threshold matrix.
var bayer4 = [4][4]float32{
	{0, 8, 2, 10},
	{12, 4, 14, 6},
	{3, 11, 1, 9},
	{15, 7, 13, 5},
}

// brailleBits maps a micro-pixel inside a 2x4 cell to its braille dot bit.
var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// brailleBackend rasterizes into a grid of 2x4 micro-pixels per terminal cell.
type brailleBackend struct {
	mu *sync.Mutex

	w, h int // in cells
	pix  []bool
	out  []string
}

// BrailleBackend is a RendererBackend that draws into Unicode braille cells.
// Shading is expressed with ordered dithering; each cell encodes a 2x4 block of micro-pixels.
type BrailleBackend interface {
	RendererBackend

	// Lines returns the last presented frame, one string per cell row.
	//
	// Returns:
	//   - []string: the rows
	Lines() []string

	// String returns Lines joined with newlines.
	String() string
}

var _ BrailleBackend = &brailleBackend{}

// NewBrailleBackend creates a braille backend of the given size in terminal cells.
//
// Parameters:
//   - width: columns
//   - height: rows
//
// Returns:
//   - BrailleBackend: the backend
func NewBrailleBackend(width, height int) BrailleBackend {
	b := &brailleBackend{mu: &sync.Mutex{}}
	b.Resize(width, height)
	return b
}

func (b *brailleBackend) Type() RendererBackendType {
	return BackendTypeBraille
}

func (b *brailleBackend) PixelSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.w * 2, b.h * 4
}

func (b *brailleBackend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.w, b.h = max(width, 0), max(height, 0)
	b.pix = make([]bool, b.w*2*b.h*4)
	b.out = nil
}

func (b *brailleBackend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.pix)
}

func (b *brailleBackend) FillTriangle(t Triangle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pw, ph := b.w*2, b.h*4
	a, c, d := t.Points[0], t.Points[1], t.Points[2]
	area := edge(a, c, d)
	if area == 0 {
		return
	}
	minX := max(int(math.Floor(float64(min(a[0], c[0], d[0])))), 0)
	maxX := min(int(math.Ceil(float64(max(a[0], c[0], d[0])))), pw-1)
	minY := max(int(math.Floor(float64(min(a[1], c[1], d[1])))), 0)
	maxY := min(int(math.Ceil(float64(max(a[1], c[1], d[1])))), ph-1)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := [2]float32{float32(x) + 0.5, float32(y) + 0.5}
			w0, w1, w2 := edge(c, d, p), edge(d, a, p), edge(a, c, p)
			inside := (w0 >= 0 && w1 >= 0 && w2 >= 0) || (w0 <= 0 && w1 <= 0 && w2 <= 0)
			if !inside {
				continue
			}
			threshold := (bayer4[y%4][x%4] + 0.5) / 16
			b.pix[y*pw+x] = t.Intensity > threshold
		}
	}
}

func (b *brailleBackend) StrokeTriangle(t Triangle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	limit := float32(4 * (b.w*2 + b.h*4))
	for i := range 3 {
		p, q := t.Points[i], t.Points[(i+1)%3]
		if max(abs32(p[0]), abs32(p[1]), abs32(q[0]), abs32(q[1])) > limit {
			continue
		}
		b.line(int(p[0]), int(p[1]), int(q[0]), int(q[1]))
	}
}

func (b *brailleBackend) Present() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	pw := b.w * 2
	out := make([]string, b.h)
	row := make([]rune, b.w)
	for cy := 0; cy < b.h; cy++ {
		for cx := 0; cx < b.w; cx++ {
			var mask uint8
			for ry := range 4 {
				for rx := range 2 {
					if b.pix[(cy*4+ry)*pw+cx*2+rx] {
						mask |= brailleBits[ry][rx]
					}
				}
			}
			if mask == 0 {
				row[cx] = ' '
			} else {
				row[cx] = rune(0x2800 + int(mask))
			}
		}
		out[cy] = string(row)
	}
	b.out = out
	return nil
}

func (b *brailleBackend) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.out...)
}

func (b *brailleBackend) String() string {
	return strings.Join(b.Lines(), "\n")
}

// line draws a Bresenham line on the micro grid.
func (b *brailleBackend) line(x0, y0, x1, y1 int) {
	pw, ph := b.w*2, b.h*4
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if x0 >= 0 && y0 >= 0 && x0 < pw && y0 < ph {
			b.pix[y0*pw+x0] = true
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// edge is the signed area of the parallelogram (a, b, p).
func edge(a, b, p [2]float32) float32 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
