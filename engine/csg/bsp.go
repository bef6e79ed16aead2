package csg

import "math"

// epsilon is the plane thickness used to classify points as coplanar.
const epsilon = 1e-5

// vec3 is a double precision vector. Clipping runs in float64; meshes are float32 only at the edges.
type vec3 [3]float64

func (a vec3) add(b vec3) vec3       { return vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a vec3) sub(b vec3) vec3       { return vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a vec3) scale(s float64) vec3  { return vec3{a[0] * s, a[1] * s, a[2] * s} }
func (a vec3) dot(b vec3) float64    { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func (a vec3) negate() vec3          { return vec3{-a[0], -a[1], -a[2]} }
func (a vec3) lerp(b vec3, t float64) vec3 {
	return a.add(b.sub(a).scale(t))
}
func (a vec3) cross(b vec3) vec3 {
	return vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
func (a vec3) length() float64 { return math.Sqrt(a.dot(a)) }

type vertex struct {
	pos    vec3
	normal vec3
}

func (v vertex) flip() vertex {
	return vertex{pos: v.pos, normal: v.normal.negate()}
}

func (v vertex) interpolate(o vertex, t float64) vertex {
	return vertex{pos: v.pos.lerp(o.pos, t), normal: v.normal.lerp(o.normal, t)}
}

type plane struct {
	normal vec3
	w      float64
}

// planeFromPoints returns the plane through a, b, c (counter-clockwise front face).
// ok is false for degenerate triangles.
func planeFromPoints(a, b, c vec3) (p plane, ok bool) {
	n := b.sub(a).cross(c.sub(a))
	l := n.length()
	if l < 1e-12 {
		return plane{}, false
	}
	n = n.scale(1 / l)
	return plane{normal: n, w: n.dot(a)}, true
}

func (p plane) flip() plane {
	return plane{normal: p.normal.negate(), w: -p.w}
}

type polygon struct {
	vertices []vertex
	plane    plane
}

func (p polygon) flip() polygon {
	n := len(p.vertices)
	vs := make([]vertex, n)
	for i, v := range p.vertices {
		vs[n-1-i] = v.flip()
	}
	return polygon{vertices: vs, plane: p.plane.flip()}
}

const (
	coplanar = 0
	front    = 1
	back     = 2
	spanning = 3
)

// splitPolygon classifies poly against the plane and appends it (or its pieces) to the matching lists.
// Coplanar polygons go to coplanarFront or coplanarBack depending on their orientation.
func (p plane) splitPolygon(poly polygon, coplanarFront, coplanarBack, frontList, backList *[]polygon) {
	polygonType := 0
	types := make([]int, len(poly.vertices))
	for i, v := range poly.vertices {
		t := p.normal.dot(v.pos) - p.w
		typ := coplanar
		if t < -epsilon {
			typ = back
		} else if t > epsilon {
			typ = front
		}
		polygonType |= typ
		types[i] = typ
	}

	switch polygonType {
	case coplanar:
		if p.normal.dot(poly.plane.normal) > 0 {
			*coplanarFront = append(*coplanarFront, poly)
		} else {
			*coplanarBack = append(*coplanarBack, poly)
		}
	case front:
		*frontList = append(*frontList, poly)
	case back:
		*backList = append(*backList, poly)
	case spanning:
		var f, b []vertex
		n := len(poly.vertices)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := poly.vertices[i], poly.vertices[j]
			if ti != back {
				f = append(f, vi)
			}
			if ti != front {
				b = append(b, vi)
			}
			if ti|tj == spanning {
				t := (p.w - p.normal.dot(vi.pos)) / p.normal.dot(vj.pos.sub(vi.pos))
				v := vi.interpolate(vj, t)
				f = append(f, v)
				b = append(b, v)
			}
		}
		if len(f) >= 3 {
			*frontList = append(*frontList, polygon{vertices: f, plane: poly.plane})
		}
		if len(b) >= 3 {
			*backList = append(*backList, polygon{vertices: b, plane: poly.plane})
		}
	}
}

// node is a BSP tree node. A node with a nil plane is an empty tree: every point is outside.
type node struct {
	plane    *plane
	front    *node
	back     *node
	polygons []polygon
}

func newNode(polygons []polygon) *node {
	n := &node{}
	n.build(polygons)
	return n
}

// invert converts solid space to empty space and empty space to solid space.
func (n *node) invert() {
	for i := range n.polygons {
		n.polygons[i] = n.polygons[i].flip()
	}
	if n.plane != nil {
		flipped := n.plane.flip()
		n.plane = &flipped
	}
	if n.front != nil {
		n.front.invert()
	}
	if n.back != nil {
		n.back.invert()
	}
	n.front, n.back = n.back, n.front
}

// clipPolygons removes the parts of polygons that are inside this tree's solid.
func (n *node) clipPolygons(polygons []polygon) []polygon {
	if n.plane == nil {
		return append([]polygon(nil), polygons...)
	}
	var f, b []polygon
	for _, p := range polygons {
		n.plane.splitPolygon(p, &f, &b, &f, &b)
	}
	if n.front != nil {
		f = n.front.clipPolygons(f)
	}
	if n.back != nil {
		b = n.back.clipPolygons(b)
	} else {
		b = nil
	}
	return append(f, b...)
}

// clipTo removes every polygon of this tree that is inside bsp.
func (n *node) clipTo(bsp *node) {
	n.polygons = bsp.clipPolygons(n.polygons)
	if n.front != nil {
		n.front.clipTo(bsp)
	}
	if n.back != nil {
		n.back.clipTo(bsp)
	}
}

func (n *node) allPolygons() []polygon {
	polygons := append([]polygon(nil), n.polygons...)
	if n.front != nil {
		polygons = append(polygons, n.front.allPolygons()...)
	}
	if n.back != nil {
		polygons = append(polygons, n.back.allPolygons()...)
	}
	return polygons
}

// build inserts polygons into the tree, using the first polygon's plane as the splitter of a fresh node.
func (n *node) build(polygons []polygon) {
	if len(polygons) == 0 {
		return
	}
	if n.plane == nil {
		p := polygons[0].plane
		n.plane = &p
	}
	var f, b []polygon
	for _, p := range polygons {
		n.plane.splitPolygon(p, &n.polygons, &n.polygons, &f, &b)
	}
	if len(f) > 0 {
		if n.front == nil {
			n.front = &node{}
		}
		n.front.build(f)
	}
	if len(b) > 0 {
		if n.back == nil {
			n.back = &node{}
		}
		n.back.build(b)
	}
}

func union(a, b []polygon) []polygon {
	na, nb := newNode(a), newNode(b)
	na.clipTo(nb)
	nb.clipTo(na)
	nb.invert()
	nb.clipTo(na)
	nb.invert()
	na.build(nb.allPolygons())
	return na.allPolygons()
}

func subtract(a, b []polygon) []polygon {
	na, nb := newNode(a), newNode(b)
	na.invert()
	na.clipTo(nb)
	nb.clipTo(na)
	nb.invert()
	nb.clipTo(na)
	nb.invert()
	na.build(nb.allPolygons())
	na.invert()
	return na.allPolygons()
}

func intersect(a, b []polygon) []polygon {
	na, nb := newNode(a), newNode(b)
	na.invert()
	nb.clipTo(na)
	nb.invert()
	na.clipTo(nb)
	nb.clipTo(na)
	na.build(nb.allPolygons())
	na.invert()
	return na.allPolygons()
}

// outside returns the parts of a's surface that lie outside b.
func outside(a, b []polygon) []polygon {
	return newNode(b).clipPolygons(a)
}

// inside returns the parts of a's surface that lie inside b.
func inside(a, b []polygon) []polygon {
	nb := newNode(b)
	nb.invert()
	return nb.clipPolygons(a)
}

// combine dispatches an operation over two polygon soups. The switch is exhaustive over Operation.
func combine(op Operation, a, b []polygon) ([]polygon, error) {
	switch op {
	case Union:
		return union(a, b), nil
	case Subtraction:
		return subtract(a, b), nil
	case ReverseSubtraction:
		return subtract(b, a), nil
	case Intersection:
		return intersect(a, b), nil
	case Difference:
		return append(subtract(a, b), subtract(b, a)...), nil
	case HollowSubtraction:
		return outside(a, b), nil
	case HollowIntersection:
		return inside(a, b), nil
	}
	return nil, ErrUnknownOperation
}
