package dxf

import (
	"fmt"
	"math"

	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
	"github.com/mohammed-shakir/dxf2gml/internal/geometry"
)

// Boundary path type flags (group 92).
const (
	pathExternal = 1
	pathPolyline = 2
)

// Edge types of non-polyline boundary paths (group 72).
const (
	edgeLine    = 1
	edgeArc     = 2
	edgeEllipse = 3
	edgeSpline  = 4
)

// arcStep is the largest angle covered by one segment of a tessellated arc.
const arcStep = math.Pi / 32

// cursor walks the tags of one entity.
type cursor struct {
	tags []tag
	pos  int
}

func (c *cursor) done() bool { return c.pos >= len(c.tags) }

func (c *cursor) peek() (tag, bool) {
	if c.done() {
		return tag{}, false
	}
	return c.tags[c.pos], true
}

// next returns the next tag, which must carry code.
func (c *cursor) next(code int) (tag, error) {
	t, ok := c.peek()
	if !ok {
		return tag{}, fmt.Errorf("group %d expected, entity ended", code)
	}
	if t.code != code {
		return tag{}, fmt.Errorf("line %d: group %d expected, found %d", t.line, code, t.code)
	}
	c.pos++
	return t, nil
}

func (c *cursor) float(code int) (float64, error) {
	t, err := c.next(code)
	if err != nil {
		return 0, err
	}
	return t.float()
}

func (c *cursor) int(code int) (int, error) {
	t, err := c.next(code)
	if err != nil {
		return 0, err
	}
	return t.int()
}

func (c *cursor) point(xCode, yCode int) (model.Point, error) {
	x, err := c.float(xCode)
	if err != nil {
		return model.Point{}, err
	}
	y, err := c.float(yCode)
	if err != nil {
		return model.Point{}, err
	}
	return model.Point{X: x, Y: y}, nil
}

// optional consumes the next tag when it carries code.
func (c *cursor) optional(code int) (tag, bool) {
	t, ok := c.peek()
	if !ok || t.code != code {
		return tag{}, false
	}
	c.pos++
	return t, true
}

// hatch is the decoded part of a HATCH entity used for parcels.
type hatch struct {
	pattern string
	paths   []boundaryPath
}

type boundaryPath struct {
	flags int
	ring  []model.Point
}

// outer returns the external boundary, or the first path when none is flagged.
func (h hatch) outer() []model.Point {
	if i := h.outerIndex(); i >= 0 {
		return h.paths[i].ring
	}
	return nil
}

func (h hatch) outerIndex() int {
	for i, p := range h.paths {
		if p.flags&pathExternal != 0 {
			return i
		}
	}
	if len(h.paths) > 0 {
		return 0
	}
	return -1
}

// area is the filled area: the outer path less every other boundary path.
func (h hatch) area() float64 {
	o := h.outerIndex()
	if o < 0 {
		return 0
	}
	a := geometry.Area(h.paths[o].ring)
	for i, p := range h.paths {
		if i != o {
			a -= geometry.Area(p.ring)
		}
	}
	return a
}

func parseHatch(e entity) (hatch, error) {
	var h hatch
	c := &cursor{tags: e.tags}
	for !c.done() {
		t := c.tags[c.pos]
		c.pos++
		switch t.code {
		case 2:
			if h.pattern == "" {
				h.pattern = t.value
			}
		case 91:
			n, err := t.int()
			if err != nil {
				return h, err
			}
			for i := 0; i < n; i++ {
				p, err := parseBoundaryPath(c)
				if err != nil {
					return h, fmt.Errorf("boundary path %d: %w", i+1, err)
				}
				h.paths = append(h.paths, p)
			}
			// pattern and seed data follow the paths
			return h, nil
		}
	}
	return h, nil
}

func parseBoundaryPath(c *cursor) (boundaryPath, error) {
	flags, err := c.int(92)
	if err != nil {
		return boundaryPath{}, err
	}
	p := boundaryPath{flags: flags}
	if flags&pathPolyline != 0 {
		p.ring, err = parsePolylinePath(c)
	} else {
		p.ring, err = parseEdgePath(c)
	}
	if err != nil {
		return p, err
	}

	// source boundary object references
	if t, ok := c.optional(97); ok {
		n, err := t.int()
		if err != nil {
			return p, err
		}
		for i := 0; i < n; i++ {
			if _, ok := c.optional(330); !ok {
				break
			}
		}
	}
	return p, nil
}

func parsePolylinePath(c *cursor) ([]model.Point, error) {
	hasBulge, err := c.int(72)
	if err != nil {
		return nil, err
	}
	closed, err := c.int(73)
	if err != nil {
		return nil, err
	}
	n, err := c.int(93)
	if err != nil {
		return nil, err
	}
	verts := make([]model.Point, 0, n)
	bulges := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		pt, err := c.point(10, 20)
		if err != nil {
			return nil, err
		}
		b := 0.0
		if hasBulge != 0 {
			if t, ok := c.optional(42); ok {
				if b, err = t.float(); err != nil {
					return nil, err
				}
			}
		}
		verts = append(verts, pt)
		bulges = append(bulges, b)
	}
	return bulgeRing(verts, bulges, closed != 0), nil
}

func parseEdgePath(c *cursor) ([]model.Point, error) {
	n, err := c.int(93)
	if err != nil {
		return nil, err
	}
	var ring []model.Point
	for i := 0; i < n; i++ {
		kind, err := c.int(72)
		if err != nil {
			return nil, err
		}
		var pts []model.Point
		switch kind {
		case edgeLine:
			a, err := c.point(10, 20)
			if err != nil {
				return nil, err
			}
			b, err := c.point(11, 21)
			if err != nil {
				return nil, err
			}
			pts = []model.Point{a, b}
		case edgeArc:
			pts, err = parseArcEdge(c)
			if err != nil {
				return nil, err
			}
		case edgeEllipse:
			return nil, fmt.Errorf("edge %d: elliptic boundary edges are not supported", i+1)
		case edgeSpline:
			return nil, fmt.Errorf("edge %d: spline boundary edges are not supported", i+1)
		default:
			return nil, fmt.Errorf("edge %d: unknown edge type %d", i+1, kind)
		}
		ring = appendChain(ring, pts)
	}
	return ring, nil
}

func parseArcEdge(c *cursor) ([]model.Point, error) {
	center, err := c.point(10, 20)
	if err != nil {
		return nil, err
	}
	r, err := c.float(40)
	if err != nil {
		return nil, err
	}
	start, err := c.float(50)
	if err != nil {
		return nil, err
	}
	end, err := c.float(51)
	if err != nil {
		return nil, err
	}
	ccw := 1
	if t, ok := c.optional(73); ok {
		if ccw, err = t.int(); err != nil {
			return nil, err
		}
	}
	return arcPoints(center, r, start, end, ccw != 0), nil
}

// appendChain joins pts to ring, dropping a repeated joint vertex.
func appendChain(ring, pts []model.Point) []model.Point {
	for _, p := range pts {
		if n := len(ring); n > 0 && geometry.PointsEqual(ring[n-1], p) {
			continue
		}
		ring = append(ring, p)
	}
	return ring
}

// arcPoints tessellates an arc given in degrees. Clockwise arcs store their
// angles mirrored, as HATCH edges do.
func arcPoints(center model.Point, r, startDeg, endDeg float64, ccw bool) []model.Point {
	start := startDeg * math.Pi / 180
	end := endDeg * math.Pi / 180
	var sweep float64
	if ccw {
		sweep = end - start
		for sweep <= 0 {
			sweep += 2 * math.Pi
		}
	} else {
		start, end = -start, -end
		sweep = end - start
		for sweep >= 0 {
			sweep -= 2 * math.Pi
		}
	}
	n := int(math.Ceil(math.Abs(sweep) / arcStep))
	if n < 2 {
		n = 2
	}
	pts := make([]model.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		a := start + sweep*float64(i)/float64(n)
		pts = append(pts, model.Point{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)})
	}
	return pts
}

// bulgeRing expands bulged segments into arcs. A closed ring repeats its
// first vertex at the end.
func bulgeRing(verts []model.Point, bulges []float64, closed bool) []model.Point {
	if len(verts) == 0 {
		return nil
	}
	if closed && len(verts) > 1 && geometry.PointsEqual(verts[0], verts[len(verts)-1]) {
		verts = verts[:len(verts)-1]
		bulges = bulges[:len(bulges)-1]
	}
	out := []model.Point{verts[0]}
	segments := len(verts) - 1
	if closed {
		segments = len(verts)
	}
	for i := 0; i < segments; i++ {
		a := verts[i]
		b := verts[(i+1)%len(verts)]
		out = append(out, bulgePoints(a, b, bulges[i])...)
		out = append(out, b)
	}
	return out
}

// bulgePoints returns the interior points of the arc from a to b.
func bulgePoints(a, b model.Point, bulge float64) []model.Point {
	if math.Abs(bulge) < 1e-12 {
		return nil
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	d := math.Hypot(dx, dy)
	if d == 0 {
		return nil
	}
	theta := 4 * math.Atan(bulge)
	r := d / (2 * math.Sin(theta/2))
	dir := math.Atan2(dy, dx) + math.Pi/2 - theta/2
	cx, cy := a.X+r*math.Cos(dir), a.Y+r*math.Sin(dir)

	start := math.Atan2(a.Y-cy, a.X-cx)
	n := int(math.Ceil(math.Abs(theta) / arcStep))
	if n < 2 {
		n = 2
	}
	radius := math.Abs(r)
	pts := make([]model.Point, 0, n-1)
	for i := 1; i < n; i++ {
		ang := start + theta*float64(i)/float64(n)
		pts = append(pts, model.Point{X: cx + radius*math.Cos(ang), Y: cy + radius*math.Sin(ang)})
	}
	return pts
}
