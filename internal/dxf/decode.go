package dxf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/rpaloschi/dxf-go/core"
	"github.com/rpaloschi/dxf-go/document"
	"github.com/rpaloschi/dxf-go/entities"

	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
)

func init() {
	// dxf-go reports every discarded group code on stderr.
	core.Log.SetOutput(io.Discard)
}

// decodeEntities runs dxf-go over the drawing and queues the entities it
// supports by DXF kind, in drawing order. HATCH and MTEXT are not among them.
func decodeEntities(data []byte) (q map[string][]entities.Entity, err error) {
	defer func() {
		if r := recover(); r != nil {
			q, err = nil, fmt.Errorf("dxf-go: %v", r)
		}
	}()
	doc, err := document.DxfDocumentFromStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	q = make(map[string][]entities.Entity)
	if doc.Entities == nil {
		return q, nil
	}
	for _, e := range doc.Entities.Entities {
		if k := decodedKind(e); k != "" {
			q[k] = append(q[k], e)
		}
	}
	return q, nil
}

func decodedKind(e entities.Entity) string {
	switch e.(type) {
	case *entities.LWPolyline:
		return "LWPOLYLINE"
	case *entities.Polyline:
		return "POLYLINE"
	case *entities.Text:
		return "TEXT"
	case *entities.Line:
		return "LINE"
	}
	return ""
}

func decodedHandle(e entities.Entity) string {
	switch v := e.(type) {
	case *entities.LWPolyline:
		return v.Handle
	case *entities.Polyline:
		return v.Handle
	case *entities.Text:
		return v.Handle
	case *entities.Line:
		return v.Handle
	}
	return ""
}

// fill copies geometry and text of a decoded entity into f.
func fill(f *model.ParcelFeature, e entities.Entity) {
	switch v := e.(type) {
	case *entities.LWPolyline:
		r := polyRing{closed: v.Closed}
		for _, p := range v.Points {
			r.pts = append(r.pts, model.Point{X: p.Point.X, Y: p.Point.Y})
		}
		f.Ring = r.ring()
	case *entities.Polyline:
		r := polyRing{closed: v.Closed}
		for _, vx := range v.Vertices {
			r.pts = append(r.pts, model.Point{X: vx.Location.X, Y: vx.Location.Y})
		}
		f.Ring = r.ring()
	case *entities.Text:
		f.Tag = unescapeUnicode(v.Value)
		f.Ring = []model.Point{{X: v.FirstAlignmentPoint.X, Y: v.FirstAlignmentPoint.Y}}
	case *entities.Line:
		f.Ring = []model.Point{
			{X: v.Start.X, Y: v.Start.Y},
			{X: v.End.X, Y: v.End.Y},
		}
	}
}
