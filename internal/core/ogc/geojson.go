package ogc

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/dxf2gml/internal/core/crs"
	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
)

// GeoJSON returns the parcels as a WGS84 FeatureCollection for map previews.
// Coordinates are projected from the drawing CRS.
func GeoJSON(parcels []model.EncodedParcel, proj crs.Projection) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range parcels {
		ring := make(orb.Ring, 0, len(p.Coords))
		for _, c := range p.Coords {
			lon, lat := proj.ToWGS84(c.X, c.Y)
			ring = append(ring, orb.Point{lon, lat})
		}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.ID = p.Namespace + "." + p.Label
		f.Properties["reference"] = p.Label
		f.Properties["area"] = p.Area
		f.Properties["namespace"] = p.BaseNamespace
		if p.CadastralReference != "" {
			f.Properties["nationalCadastralReference"] = p.CadastralReference
		}
		fc.Append(f)
	}
	return fc
}
