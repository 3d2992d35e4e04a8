package ogc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
)

// RingWKT renders a closed ring as a single-ring POLYGON in the source CRS.
func RingWKT(ring []model.Point) (string, error) {
	if len(ring) < 4 {
		return "", errors.New("polygon ring has <4 points")
	}
	pts := make([]string, 0, len(ring))
	for _, p := range ring {
		pts = append(pts, FormatNumber(p.X)+" "+FormatNumber(p.Y))
	}
	return fmt.Sprintf("POLYGON((%s))", strings.Join(pts, ", ")), nil
}
