// Package events publishes and consumes conversion events on Kafka.
package events

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mohammed-shakir/dxf2gml/internal/core/crs"
	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
	"github.com/mohammed-shakir/dxf2gml/internal/core/ogc"
	"github.com/mohammed-shakir/dxf2gml/internal/geometry"
	"github.com/mohammed-shakir/dxf2gml/internal/mapper"
)

const Version = 1

// ParcelsConverted is emitted once per successful conversion that produced
// at least one parcel.
type ParcelsConverted struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Code      string    `json:"code"`
	Namespace string    `json:"namespace"`
	TS        time.Time `json:"ts"`
	Parcels   []Parcel  `json:"parcels"`
}

type Parcel struct {
	Reference string   `json:"reference"`
	Area      float64  `json:"area"`
	WKT       string   `json:"wkt"`
	Centroid  LonLat   `json:"centroid"`
	Cell      string   `json:"h3_cell,omitempty"`
	Cells     []string `json:"h3_cover,omitempty"`
}

type LonLat struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

func (e ParcelsConverted) Validate() error {
	if e.Version != Version {
		return fmt.Errorf("version must be %d", Version)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if !crs.Supported(crs.Code(e.Code)) {
		return fmt.Errorf("code %q is not an accepted EPSG code", e.Code)
	}
	switch e.Namespace {
	case model.NamespaceCadastral, model.NamespaceLocal:
	default:
		return fmt.Errorf("namespace must be %s or %s", model.NamespaceCadastral, model.NamespaceLocal)
	}
	if e.TS.IsZero() {
		return errors.New("ts is required")
	}
	if len(e.Parcels) == 0 {
		return errors.New("at least one parcel is required")
	}
	for i, p := range e.Parcels {
		if strings.TrimSpace(p.Reference) == "" {
			return fmt.Errorf("parcel %d: reference is required", i)
		}
		if !(p.Centroid.Lon >= -180 && p.Centroid.Lon <= 180 && p.Centroid.Lat >= -90 && p.Centroid.Lat <= 90) {
			return fmt.Errorf("parcel %d: centroid out of range", i)
		}
	}
	return nil
}

// Builder derives events from conversion results.
type Builder struct {
	Mapper mapper.Interface
	Res    int
	Now    func() time.Time
}

// Build returns the event for res. ok is false when there is nothing to
// announce.
func (b Builder) Build(source string, code crs.Code, res model.ConversionResult) (ev ParcelsConverted, ok bool, err error) {
	if len(res.Parcels) == 0 {
		return ev, false, nil
	}
	proj, err := code.Projection()
	if err != nil {
		return ev, false, err
	}
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	ev = ParcelsConverted{
		Version:   Version,
		ID:        uuid.NewString(),
		Source:    source,
		Code:      code.String(),
		Namespace: res.Namespace,
		TS:        now().UTC(),
		Parcels:   make([]Parcel, 0, len(res.Parcels)),
	}
	for _, p := range res.Parcels {
		wkt, err := ogc.RingWKT(p.Coords)
		if err != nil {
			return ev, false, fmt.Errorf("parcel %s: %w", p.Label, err)
		}
		c := geometry.Centroid(p.Coords)
		lon, lat := proj.ToWGS84(c.X, c.Y)
		out := Parcel{
			Reference: p.Label,
			Area:      p.Area,
			WKT:       wkt,
			Centroid:  LonLat{Lon: lon, Lat: lat},
		}
		if b.Mapper != nil {
			if out.Cell, err = b.Mapper.CellForPoint(model.Point{X: lon, Y: lat}, b.Res); err != nil {
				return ev, false, fmt.Errorf("parcel %s: %w", p.Label, err)
			}
			cover, err := b.Mapper.CellsForRing(toWGS84(proj, p.Coords), b.Res)
			if err != nil {
				return ev, false, fmt.Errorf("parcel %s: %w", p.Label, err)
			}
			out.Cells = cover
		}
		ev.Parcels = append(ev.Parcels, out)
	}
	return ev, true, nil
}

func toWGS84(proj crs.Projection, ring []model.Point) []model.Point {
	out := make([]model.Point, len(ring))
	for i, p := range ring {
		lon, lat := proj.ToWGS84(p.X, p.Y)
		out[i] = model.Point{X: lon, Y: lat}
	}
	return out
}
