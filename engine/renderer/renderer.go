package renderer

import (
	"cmp"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"cogentcore.org/core/math32"
	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/material"
	"github.com/Carmen-Shannon/oxy-csg/engine/scene"
)

var (
	// ErrNoBackend is returned by Render when the renderer has no backend.
	ErrNoBackend = errors.New("renderer: no backend")

	// ErrEmptyViewport is returned by Render when the backend has zero area.
	ErrEmptyViewport = errors.New("renderer: empty viewport")
)

// Stats describes the work done by one Render call.
type Stats struct {
	Items     int
	Triangles int
	BackFaces int
	Clipped   int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backend     RendererBackend
	cullBack    bool
	fallback    material.Material
	logger      *slog.Logger
	frameCount  uint64
	triangleBuf []Triangle
}

// Renderer turns a scene.Frame into shaded screen-space triangles and hands them, back to front,
// to its backend.
//
// The renderer is a software pipeline: vertices are transformed on the CPU, lit once per triangle
// with the scene's ambient term and lights, depth sorted and then filled by the backend.
type Renderer interface {
	// Backend returns the output backend.
	//
	// Returns:
	//   - RendererBackend: the backend, or nil if none was configured
	Backend() RendererBackend

	// SetBackend replaces the output backend.
	//
	// Parameters:
	//   - b: the new backend
	SetBackend(b RendererBackend)

	// Resize forwards a new output size to the backend.
	//
	// Parameters:
	//   - width: the new width in backend units
	//   - height: the new height in backend units
	Resize(width, height int)

	// Render draws one frame.
	//
	// Parameters:
	//   - frame: the frame snapshot taken from a scene
	//
	// Returns:
	//   - Stats: counters for the frame
	//   - error: ErrNoBackend, ErrEmptyViewport or the backend's Present error
	Render(frame scene.Frame) (Stats, error)

	// Frames returns the number of frames presented successfully.
	//
	// Returns:
	//   - uint64: the frame count
	Frames() uint64
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer. Back-face culling is enabled by default.
//
// Parameters:
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the newly created renderer
func NewRenderer(options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:       &sync.Mutex{},
		cullBack: true,
		fallback: material.NewMaterial(material.WithName("fallback")),
	}

	for _, opt := range options {
		opt(r)
	}
	r.logger = common.Coalesce(r.logger, common.Logger())
	return r
}

func (r *renderer) Backend() RendererBackend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend
}

func (r *renderer) SetBackend(b RendererBackend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend = b
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backend != nil {
		r.backend.Resize(width, height)
	}
}

func (r *renderer) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameCount
}

func (r *renderer) Render(frame scene.Frame) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats Stats
	if r.backend == nil {
		return stats, ErrNoBackend
	}
	w, h := r.backend.PixelSize()
	if w <= 0 || h <= 0 {
		return stats, ErrEmptyViewport
	}

	r.triangleBuf = r.triangleBuf[:0]
	for _, item := range frame.Items {
		r.collect(&frame, item, float32(w), float32(h), &stats)
	}

	// Painter's order: furthest first.
	slices.SortStableFunc(r.triangleBuf, func(a, b Triangle) int {
		return cmp.Compare(b.Depth, a.Depth)
	})

	r.backend.Clear()
	for _, t := range r.triangleBuf {
		if t.Wireframe {
			r.backend.StrokeTriangle(t)
		} else {
			r.backend.FillTriangle(t)
		}
	}
	stats.Triangles = len(r.triangleBuf)

	if err := r.backend.Present(); err != nil {
		r.logger.Warn("present failed", "backend", r.backend.Type().String(), "error", err)
		return stats, err
	}
	r.frameCount++
	return stats, nil
}

// collect transforms, culls and shades the triangles of one draw item into triangleBuf.
func (r *renderer) collect(frame *scene.Frame, item scene.DrawItem, w, h float32, stats *Stats) {
	mdl := item.Model
	if mdl == nil || mdl.Released() {
		return
	}
	g := mdl.Geometry()
	if g == nil {
		return
	}
	positions, normals, indices := g.Positions(), g.Normals(), g.Indices()
	if len(positions) == 0 || len(indices) < 3 {
		return
	}
	stats.Items++

	mat := mdl.Material()
	if mat == nil {
		mat = r.fallback
	}
	props := mat.Snapshot()

	m := item.ModelMatrix
	nm, nmOK := common.NormalMatrix(m[:])
	eye := math32.Vec3(frame.Eye[0], frame.Eye[1], frame.Eye[2])
	smooth := !props.FlatShading && nmOK && len(normals) == len(positions)

	for i := 0; i+2 < len(indices); i += 3 {
		ia, ib, ic := indices[i], indices[i+1], indices[i+2]
		if int(max(ia, ib, ic)) >= len(positions) {
			continue
		}

		var world [3]math32.Vector3
		for k, idx := range [3]uint32{ia, ib, ic} {
			p := positions[idx]
			x, y, z := common.TransformPoint(m[:], p.X, p.Y, p.Z)
			world[k] = math32.Vec3(x, y, z)
		}

		face := world[1].Sub(world[0]).Cross(world[2].Sub(world[0]))
		if face.Length() == 0 {
			continue
		}
		face = face.Normal()
		centroid := world[0].Add(world[1]).Add(world[2]).DivScalar(3)
		view := eye.Sub(centroid)
		if r.cullBack && !props.Wireframe && face.Dot(view) <= 0 {
			stats.BackFaces++
			continue
		}

		var tri Triangle
		clipped := false
		for k := range world {
			nx, ny, depth, ok := common.ProjectPoint(frame.ViewProjection[:], world[k].X, world[k].Y, world[k].Z)
			if !ok {
				clipped = true
				break
			}
			tri.Points[k] = [2]float32{(nx*0.5 + 0.5) * w, (0.5 - ny*0.5) * h}
			tri.Depth += depth / 3
		}
		if clipped {
			stats.Clipped++
			continue
		}

		n := face
		if smooth {
			var sum math32.Vector3
			for _, idx := range [3]uint32{ia, ib, ic} {
				vn := normals[idx]
				x, y, z := common.TransformNormal(nm, vn.X, vn.Y, vn.Z)
				sum = sum.Add(math32.Vec3(x, y, z))
			}
			if sum.Length() > 0 {
				n = sum.Normal()
			}
		}
		// Wireframe draws back faces too; light them from the side facing the viewer.
		if n.Dot(view) < 0 {
			n = n.MulScalar(-1)
		}

		tri.Color, tri.Intensity = shade(props, frame, centroid, n, view.Normal())
		tri.Wireframe = props.Wireframe
		r.triangleBuf = append(r.triangleBuf, tri)
	}
}

// shade lights a surface point with the frame's ambient term, the diffuse contribution of every light
// and a Blinn-Phong highlight shaped by the material model.
//
// Parameters:
//   - props: the material snapshot
//   - frame: the frame holding ambient color and lights
//   - p: the world-space point
//   - n: the unit surface normal
//   - v: the unit direction from p to the eye
//
// Returns:
//   - common.Color: the lit color with the material opacity as alpha
//   - float32: the luminance of the lit color in [0, 1]
func shade(props material.Properties, frame *scene.Frame, p, n, v math32.Vector3) (common.Color, float32) {
	pp := [3]float32{p.X, p.Y, p.Z}
	nn := [3]float32{n.X, n.Y, n.Z}
	lit := frame.Ambient
	strength, exponent := material.Specular(props)

	var spec float32
	for _, l := range frame.Lights {
		if l == nil {
			continue
		}
		d := l.Diffuse(pp, nn)
		lit[0] += d[0]
		lit[1] += d[1]
		lit[2] += d[2]

		if strength == 0 {
			continue
		}
		toLight, atten := l.Incidence(pp)
		if atten == 0 {
			continue
		}
		ld := math32.Vec3(toLight[0], toLight[1], toLight[2])
		if n.Dot(ld) <= 0 {
			continue
		}
		half := ld.Add(v)
		if half.Length() == 0 {
			continue
		}
		spec += strength * math32.Pow(max(n.Dot(half.Normal()), 0), exponent) * atten * l.Intensity()
	}

	c := common.Color{
		common.Clamp(props.Color[0]*lit[0]+spec, 0, 1),
		common.Clamp(props.Color[1]*lit[1]+spec, 0, 1),
		common.Clamp(props.Color[2]*lit[2]+spec, 0, 1),
		common.Clamp(props.Opacity, 0, 1),
	}
	lum := 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
	return c, common.Clamp(lum, 0, 1)
}
