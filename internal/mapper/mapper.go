// Package mapper converts geographic parcel geometry to H3 cells.
package mapper

import (
	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
)

// Cells is a sorted, de-duplicated list of H3 cell ids.
type Cells []string

// Interface takes coordinates in WGS84 degrees, X as longitude.
type Interface interface {
	CellForPoint(p model.Point, res int) (string, error)
	CellsForRing(ring []model.Point, res int) (Cells, error)
}
