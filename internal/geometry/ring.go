// Package geometry wraps the planar computations done on parcel rings.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
)

// Tolerance used when comparing vertices read from a drawing.
const Tolerance = 1e-6

func ToRing(pts []model.Point) orb.Ring {
	r := make(orb.Ring, 0, len(pts))
	for _, p := range pts {
		r = append(r, orb.Point{p.X, p.Y})
	}
	return r
}

func FromRing(r orb.Ring) []model.Point {
	out := make([]model.Point, 0, len(r))
	for _, p := range r {
		out = append(out, model.Point{X: p[0], Y: p[1]})
	}
	return out
}

func PointsEqual(a, b model.Point) bool {
	return math.Abs(a.X-b.X) < Tolerance && math.Abs(a.Y-b.Y) < Tolerance
}

// Closed reports whether the ring has at least 4 vertices and its first and
// last vertices match.
func Closed(pts []model.Point) bool {
	if len(pts) < 4 {
		return false
	}
	return PointsEqual(pts[0], pts[len(pts)-1])
}

// Close appends the first vertex when the ring is open. The input is not modified.
func Close(pts []model.Point) []model.Point {
	if len(pts) < 2 || PointsEqual(pts[0], pts[len(pts)-1]) {
		return pts
	}
	out := make([]model.Point, 0, len(pts)+1)
	out = append(out, pts...)
	return append(out, pts[0])
}

// Area is the unsigned planar (shoelace) area of the ring.
func Area(pts []model.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	return planar.Area(orb.Polygon{ToRing(Close(pts))})
}

// Centroid is the area-weighted centroid of the ring; for degenerate rings it
// falls back to the first vertex.
func Centroid(pts []model.Point) model.Point {
	if len(pts) == 0 {
		return model.Point{}
	}
	c, a := planar.CentroidArea(orb.Polygon{ToRing(Close(pts))})
	if a == 0 || math.IsNaN(c[0]) || math.IsNaN(c[1]) {
		return pts[0]
	}
	return model.Point{X: c[0], Y: c[1]}
}

func Bound(pts []model.Point) orb.Bound {
	return ToRing(pts).Bound()
}

// AreaMatches compares a given area with the one computed from the ring.
func AreaMatches(given, computed, absTol, relTol float64) bool {
	tol := math.Max(absTol, relTol*math.Abs(computed))
	return math.Abs(given-computed) <= tol
}
