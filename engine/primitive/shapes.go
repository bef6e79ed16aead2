package primitive

import (
	"slices"

	"cogentcore.org/core/math32"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
)

// meshBuilder accumulates vertices and triangles for a primitive.
type meshBuilder struct {
	positions []math32.Vector3
	normals   []math32.Vector3
	indices   []uint32
}

func (m *meshBuilder) vertex(p, n math32.Vector3) uint32 {
	m.positions = append(m.positions, p)
	m.normals = append(m.normals, n)
	return uint32(len(m.positions) - 1)
}

func (m *meshBuilder) tri(a, b, c uint32) {
	m.indices = append(m.indices, a, b, c)
}

func (m *meshBuilder) build(label string) geometry.Geometry {
	return geometry.NewGeometry(
		geometry.WithLabel(label),
		geometry.WithPositions(m.positions),
		geometry.WithNormals(m.normals),
		geometry.WithIndices(m.indices),
	)
}

// sphere is a UV sphere of radius 1. Pole rows emit one triangle per quad.
func sphere(res Resolution) geometry.Geometry {
	s := res.segments()
	w, h := s.sphereWidth, s.sphereHeight
	mb := &meshBuilder{}

	grid := make([][]uint32, h+1)
	for iy := 0; iy <= h; iy++ {
		theta := float32(iy) / float32(h) * math32.Pi
		row := make([]uint32, w+1)
		for ix := 0; ix <= w; ix++ {
			phi := float32(ix) / float32(w) * 2 * math32.Pi
			p := math32.Vec3(
				-math32.Cos(phi)*math32.Sin(theta),
				math32.Cos(theta),
				math32.Sin(phi)*math32.Sin(theta),
			)
			row[ix] = mb.vertex(p, p.Normal())
		}
		grid[iy] = row
	}

	for iy := 0; iy < h; iy++ {
		for ix := 0; ix < w; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			if iy != 0 {
				mb.tri(a, b, d)
			}
			if iy != h-1 {
				mb.tri(b, c, d)
			}
		}
	}
	return mb.build(KindSphere.String())
}

// box is an axis-aligned unit cube centered on the origin, four vertices per face.
func box(Resolution) geometry.Geometry {
	// normal, u, v with u x v == normal so each quad winds counter-clockwise seen from outside
	faces := [6][3]math32.Vector3{
		{math32.Vec3(1, 0, 0), math32.Vec3(0, 0, -1), math32.Vec3(0, 1, 0)},
		{math32.Vec3(-1, 0, 0), math32.Vec3(0, 0, 1), math32.Vec3(0, 1, 0)},
		{math32.Vec3(0, 1, 0), math32.Vec3(1, 0, 0), math32.Vec3(0, 0, -1)},
		{math32.Vec3(0, -1, 0), math32.Vec3(1, 0, 0), math32.Vec3(0, 0, 1)},
		{math32.Vec3(0, 0, 1), math32.Vec3(1, 0, 0), math32.Vec3(0, 1, 0)},
		{math32.Vec3(0, 0, -1), math32.Vec3(-1, 0, 0), math32.Vec3(0, 1, 0)},
	}

	mb := &meshBuilder{}
	for _, f := range faces {
		n, u, v := f[0], f[1].MulScalar(0.5), f[2].MulScalar(0.5)
		c := n.MulScalar(0.5)
		i0 := mb.vertex(c.Sub(u).Sub(v), n)
		i1 := mb.vertex(c.Add(u).Sub(v), n)
		i2 := mb.vertex(c.Add(u).Add(v), n)
		i3 := mb.vertex(c.Sub(u).Add(v), n)
		mb.tri(i0, i1, i2)
		mb.tri(i0, i2, i3)
	}
	return mb.build(KindBox.String())
}

func cylinder(res Resolution) geometry.Geometry {
	return frustum(1, 1, 2, res.segments().radial, KindCylinder.String())
}

func cone(res Resolution) geometry.Geometry {
	return frustum(0, 1, 2, res.segments().radial, KindCone.String())
}

// frustum builds a capped truncated cone along Y. A zero radius collapses that end to an apex
// and drops its cap.
func frustum(radiusTop, radiusBottom, height float32, radial int, label string) geometry.Geometry {
	half := height / 2
	slope := (radiusBottom - radiusTop) / height
	mb := &meshBuilder{}

	var rings [2][]uint32
	for iy, ring := range [2]struct{ y, r float32 }{{half, radiusTop}, {-half, radiusBottom}} {
		rings[iy] = make([]uint32, radial+1)
		for ix := 0; ix <= radial; ix++ {
			theta := float32(ix) / float32(radial) * 2 * math32.Pi
			sin, cos := math32.Sin(theta), math32.Cos(theta)
			rings[iy][ix] = mb.vertex(
				math32.Vec3(ring.r*sin, ring.y, ring.r*cos),
				math32.Vec3(sin, slope, cos).Normal(),
			)
		}
	}
	for ix := 0; ix < radial; ix++ {
		a, b := rings[0][ix], rings[1][ix]
		c, d := rings[1][ix+1], rings[0][ix+1]
		if radiusTop > 0 {
			mb.tri(a, b, d)
		}
		if radiusBottom > 0 {
			mb.tri(b, c, d)
		}
	}

	capDisc := func(y, r, sign float32) {
		n := math32.Vec3(0, sign, 0)
		center := mb.vertex(math32.Vec3(0, y, 0), n)
		ring := make([]uint32, radial+1)
		for ix := 0; ix <= radial; ix++ {
			theta := float32(ix) / float32(radial) * 2 * math32.Pi
			ring[ix] = mb.vertex(math32.Vec3(r*math32.Sin(theta), y, r*math32.Cos(theta)), n)
		}
		for ix := 0; ix < radial; ix++ {
			if sign > 0 {
				mb.tri(center, ring[ix], ring[ix+1])
			} else {
				mb.tri(center, ring[ix+1], ring[ix])
			}
		}
	}
	if radiusTop > 0 {
		capDisc(half, radiusTop, 1)
	}
	if radiusBottom > 0 {
		capDisc(-half, radiusBottom, -1)
	}
	return mb.build(label)
}

// torus lies in the XY plane with major radius 1 and tube radius 0.4.
func torus(res Resolution) geometry.Geometry {
	const radius, tube = 1, 0.4
	s := res.segments()
	radial, tubular := s.torusRadial, s.torusTubular
	mb := &meshBuilder{}

	for j := 0; j <= radial; j++ {
		v := float32(j) / float32(radial) * 2 * math32.Pi
		for i := 0; i <= tubular; i++ {
			u := float32(i) / float32(tubular) * 2 * math32.Pi
			p := math32.Vec3(
				(radius+tube*math32.Cos(v))*math32.Cos(u),
				(radius+tube*math32.Cos(v))*math32.Sin(u),
				tube*math32.Sin(v),
			)
			center := math32.Vec3(radius*math32.Cos(u), radius*math32.Sin(u), 0)
			mb.vertex(p, p.Sub(center).Normal())
		}
	}

	stride := uint32(tubular + 1)
	for j := uint32(1); j <= uint32(radial); j++ {
		for i := uint32(1); i <= uint32(tubular); i++ {
			a := stride*j + i - 1
			b := stride*(j-1) + i - 1
			c := stride*(j-1) + i
			d := stride*j + i
			mb.tri(a, b, d)
			mb.tri(b, c, d)
		}
	}
	return mb.build(KindTorus.String())
}

// torusKnot sweeps a tube of radius 0.4 along a (2,3) torus knot of radius 1.
func torusKnot(res Resolution) geometry.Geometry {
	const radius, tube = 1, 0.4
	const p, q float32 = 2, 3
	s := res.segments()
	tubular, radial := s.knotTubular, s.knotRadial
	mb := &meshBuilder{}

	curve := func(u float32) math32.Vector3 {
		quOverP := q / p * u
		cs := math32.Cos(quOverP)
		return math32.Vec3(
			radius*(2+cs)*0.5*math32.Cos(u),
			radius*(2+cs)*math32.Sin(u)*0.5,
			radius*math32.Sin(quOverP)*0.5,
		)
	}

	for i := 0; i <= tubular; i++ {
		u := float32(i) / float32(tubular) * p * math32.Pi * 2
		p1 := curve(u)
		p2 := curve(u + 0.01)

		tangent := p2.Sub(p1)
		normal := p2.Add(p1)
		binormal := tangent.Cross(normal)
		normal = binormal.Cross(tangent)
		binormal = binormal.Normal()
		normal = normal.Normal()

		for j := 0; j <= radial; j++ {
			v := float32(j) / float32(radial) * math32.Pi * 2
			cx := -tube * math32.Cos(v)
			cy := tube * math32.Sin(v)
			pos := p1.Add(normal.MulScalar(cx)).Add(binormal.MulScalar(cy))
			mb.vertex(pos, pos.Sub(p1).Normal())
		}
	}

	stride := uint32(radial + 1)
	for j := uint32(1); j <= uint32(tubular); j++ {
		for i := uint32(1); i <= uint32(radial); i++ {
			a := stride*(j-1) + (i - 1)
			b := stride*j + (i - 1)
			c := stride*j + i
			d := stride*(j-1) + i
			mb.tri(a, b, d)
			mb.tri(b, c, d)
		}
	}
	return mb.build(KindTorusKnot.String())
}

// icosahedronVertices and icosahedronFaces describe a regular icosahedron with outward winding.
// Vertices are not normalized.
var (
	icosahedronVertices = func() []math32.Vector3 {
		t := (1 + math32.Sqrt(5)) / 2
		return []math32.Vector3{
			math32.Vec3(-1, t, 0), math32.Vec3(1, t, 0), math32.Vec3(-1, -t, 0), math32.Vec3(1, -t, 0),
			math32.Vec3(0, -1, t), math32.Vec3(0, 1, t), math32.Vec3(0, -1, -t), math32.Vec3(0, 1, -t),
			math32.Vec3(t, 0, -1), math32.Vec3(t, 0, 1), math32.Vec3(-t, 0, -1), math32.Vec3(-t, 0, 1),
		}
	}()
	icosahedronFaces = [20][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
)

// icosahedron has radius 1 and flat face normals.
func icosahedron(Resolution) geometry.Geometry {
	mb := &meshBuilder{}
	for _, f := range icosahedronFaces {
		a := icosahedronVertices[f[0]].Normal()
		b := icosahedronVertices[f[1]].Normal()
		c := icosahedronVertices[f[2]].Normal()
		n := math32.Normal(a, b, c)
		mb.tri(mb.vertex(a, n), mb.vertex(b, n), mb.vertex(c, n))
	}
	return mb.build(KindIcosahedron.String())
}

// dodecahedron is built as the dual of the icosahedron: one pentagon per icosahedron vertex,
// with corners at the normalized centroids of the five adjacent faces.
func dodecahedron(Resolution) geometry.Geometry {
	corners := make([]math32.Vector3, len(icosahedronFaces))
	for i, f := range icosahedronFaces {
		c := icosahedronVertices[f[0]].Add(icosahedronVertices[f[1]]).Add(icosahedronVertices[f[2]])
		corners[i] = c.Normal()
	}

	mb := &meshBuilder{}
	for vi, v := range icosahedronVertices {
		axis := v.Normal()

		var ring []int
		for fi, f := range icosahedronFaces {
			if f[0] == vi || f[1] == vi || f[2] == vi {
				ring = append(ring, fi)
			}
		}

		// order the pentagon counter-clockwise around the outward axis
		first := corners[ring[0]]
		e1 := first.Sub(axis.MulScalar(first.Dot(axis))).Normal()
		e2 := axis.Cross(e1)
		slices.SortFunc(ring, func(x, y int) int {
			ax := math32.Atan2(corners[x].Dot(e2), corners[x].Dot(e1))
			ay := math32.Atan2(corners[y].Dot(e2), corners[y].Dot(e1))
			switch {
			case ax < ay:
				return -1
			case ax > ay:
				return 1
			}
			return 0
		})

		ids := make([]uint32, len(ring))
		for k, fi := range ring {
			ids[k] = mb.vertex(corners[fi], axis)
		}
		for k := 1; k+1 < len(ids); k++ {
			mb.tri(ids[0], ids[k], ids[k+1])
		}
	}
	return mb.build(KindDodecahedron.String())
}
