package dxf

import (
	"fmt"

	yofu "github.com/yofu/dxf"
	"github.com/yofu/dxf/color"

	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
	"github.com/mohammed-shakir/dxf2gml/internal/geometry"
)

// WriteOutline writes the closed SOLID parcels as LWPOLYLINEs, one layer per
// reference, so the accepted geometry can be checked in a CAD viewer.
func WriteOutline(path string, features []model.ParcelFeature) (int, error) {
	d := yofu.NewDrawing()
	n := 0
	for _, f := range features {
		if !f.Solid() || !geometry.Closed(f.Ring) {
			continue
		}
		if _, ok := d.Layers[f.Layer]; !ok {
			if _, err := d.AddLayer(f.Layer, color.Red, yofu.DefaultLineType, true); err != nil {
				return n, fmt.Errorf("outline layer %q: %w", f.Layer, err)
			}
		} else if err := d.ChangeLayer(f.Layer); err != nil {
			return n, fmt.Errorf("outline layer %q: %w", f.Layer, err)
		}
		// the closed flag replaces the repeated first vertex
		ring := f.Ring[:len(f.Ring)-1]
		verts := make([][]float64, 0, len(ring))
		for _, p := range ring {
			verts = append(verts, []float64{p.X, p.Y})
		}
		if _, err := d.LwPolyline(true, verts...); err != nil {
			return n, fmt.Errorf("outline %q: %w", f.Layer, err)
		}
		n++
	}
	if err := d.SaveAs(path); err != nil {
		return n, fmt.Errorf("write outline %s: %w", path, err)
	}
	return n, nil
}
