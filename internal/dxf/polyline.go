package dxf

import (
	"fmt"

	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
	"github.com/mohammed-shakir/dxf2gml/internal/geometry"
)

type polyRing struct {
	pts    []model.Point
	closed bool
}

// scanLWPolyline reads vertices straight from the group codes.
func scanLWPolyline(e entity) (polyRing, error) {
	r := polyRing{closed: e.flags()&1 != 0}
	var (
		x    float64
		hasX bool
	)
	for _, t := range e.tags {
		switch t.code {
		case 10:
			v, err := t.float()
			if err != nil {
				return r, err
			}
			x, hasX = v, true
		case 20:
			if !hasX {
				return r, fmt.Errorf("line %d: vertex y without x", t.line)
			}
			y, err := t.float()
			if err != nil {
				return r, err
			}
			r.pts = append(r.pts, model.Point{X: x, Y: y})
			hasX = false
		}
	}
	return r, nil
}

func scanPolyline(e entity) (polyRing, error) {
	r := polyRing{closed: e.flags()&1 != 0}
	for _, v := range e.vertices {
		c := &cursor{tags: v.tags}
		pt, ok, err := c.find(10, 20)
		if err != nil {
			return r, err
		}
		if ok {
			r.pts = append(r.pts, pt)
		}
	}
	return r, nil
}

// find reads the first x/y pair of the given codes anywhere in the entity.
func (c *cursor) find(xCode, yCode int) (model.Point, bool, error) {
	for i, t := range c.tags {
		if t.code != xCode || i+1 >= len(c.tags) || c.tags[i+1].code != yCode {
			continue
		}
		x, err := t.float()
		if err != nil {
			return model.Point{}, false, err
		}
		y, err := c.tags[i+1].float()
		if err != nil {
			return model.Point{}, false, err
		}
		return model.Point{X: x, Y: y}, true, nil
	}
	return model.Point{}, false, nil
}

func (r polyRing) ring() []model.Point {
	if r.closed && len(r.pts) > 1 {
		return geometry.Close(r.pts)
	}
	return r.pts
}
