// Package dxf reads parcel features from ASCII DXF drawings and writes outline
// drawings back.
//
// Every record of the ENTITIES section becomes one feature, in drawing order.
// HATCH entities carry their pattern name as tag (SOLID for solid fills) and
// their outer boundary as ring and the outer area net of inner boundary
// paths; TEXT and MTEXT carry their text.
package dxf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpaloschi/dxf-go/entities"

	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
	"github.com/mohammed-shakir/dxf2gml/internal/geometry"
)

// Drawing is a parsed DXF file. It satisfies convert.Source.
type Drawing struct {
	Name     string
	CodePage string
	features []model.ParcelFeature
}

func (d *Drawing) Features() ([]model.ParcelFeature, error) { return d.features, nil }

// Open reads and parses the drawing at path.
func Open(path string) (*Drawing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dxf: %w", err)
	}
	d, err := ParseBytes(data)
	if err != nil {
		return nil, err
	}
	d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return d, nil
}

// Parse reads a whole drawing from r.
func Parse(r io.Reader) (*Drawing, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dxf: read: %w", err)
	}
	return ParseBytes(data)
}

func ParseBytes(data []byte) (*Drawing, error) {
	text, page, err := toUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("dxf: %w", err)
	}
	tags, err := readTags(text)
	if err != nil {
		return nil, fmt.Errorf("dxf: %w", err)
	}
	ents, err := entitiesSection(tags)
	if err != nil {
		return nil, fmt.Errorf("dxf: %w", err)
	}

	b := newBuilder(text, ents)
	d := &Drawing{CodePage: page, features: make([]model.ParcelFeature, 0, len(ents))}
	for _, e := range ents {
		f, err := b.feature(e)
		if err != nil {
			return nil, fmt.Errorf("dxf: %s %s: %w", e.kind, entityRef(e), err)
		}
		d.features = append(d.features, f)
	}
	return d, nil
}

func entityRef(e entity) string {
	if h := e.handle(); h != "" {
		return fmt.Sprintf("on layer %q (handle %s)", unescapeUnicode(e.layer()), h)
	}
	return fmt.Sprintf("on layer %q", unescapeUnicode(e.layer()))
}

// builder turns section records into features. LWPOLYLINE, POLYLINE, TEXT
// and LINE come from dxf-go; HATCH, MTEXT and anything dxf-go could not
// decode in step with the scan come from the scanned group codes.
type builder struct {
	queues  map[string][]entities.Entity
	decoded int
}

func newBuilder(text []byte, ents []entity) *builder {
	b := &builder{}
	want := make(map[string]int)
	for _, e := range ents {
		if e.kind == "LWPOLYLINE" || e.kind == "POLYLINE" || e.kind == "TEXT" || e.kind == "LINE" {
			want[e.kind]++
		}
	}
	if len(want) == 0 {
		return b
	}
	q, err := decodeEntities(text)
	if err != nil {
		return b
	}
	b.queues = make(map[string][]entities.Entity, len(want))
	for kind, n := range want {
		if len(q[kind]) == n {
			b.queues[kind] = q[kind]
		}
	}
	return b
}

// next pops the decoded entity for e. A handle mismatch means the two
// readers disagree and the scan wins.
func (b *builder) next(e entity) (entities.Entity, bool) {
	q := b.queues[e.kind]
	if len(q) == 0 {
		return nil, false
	}
	d := q[0]
	b.queues[e.kind] = q[1:]
	if h := e.handle(); h != "" && decodedHandle(d) != h {
		return nil, false
	}
	b.decoded++
	return d, true
}

func (b *builder) feature(e entity) (model.ParcelFeature, error) {
	f := model.ParcelFeature{
		Layer:  unescapeUnicode(e.layer()),
		Entity: e.kind,
		Handle: e.handle(),
	}
	if d, ok := b.next(e); ok {
		fill(&f, d)
		f.Area = geometry.Area(f.Ring)
		return f, nil
	}
	var err error
	switch e.kind {
	case "HATCH":
		var h hatch
		if h, err = parseHatch(e); err != nil {
			return f, err
		}
		f.Tag = h.pattern
		f.Ring = h.outer()
		f.Area = h.area()
		return f, nil
	case "LWPOLYLINE":
		var r polyRing
		if r, err = scanLWPolyline(e); err != nil {
			return f, err
		}
		f.Ring = r.ring()
	case "POLYLINE":
		var r polyRing
		if r, err = scanPolyline(e); err != nil {
			return f, err
		}
		f.Ring = r.ring()
	case "LINE":
		c := &cursor{tags: e.tags}
		a, okA, err := c.find(10, 20)
		if err != nil {
			return f, err
		}
		z, okZ, err := c.find(11, 21)
		if err != nil {
			return f, err
		}
		if okA && okZ {
			f.Ring = []model.Point{a, z}
		}
	case "TEXT", "MTEXT":
		f.Tag = unescapeUnicode(textValue(e))
		f.Ring, err = insertion(e)
	default:
		f.Ring, err = insertion(e)
	}
	if err != nil {
		return f, err
	}
	f.Area = geometry.Area(f.Ring)
	return f, nil
}

func insertion(e entity) ([]model.Point, error) {
	c := &cursor{tags: e.tags}
	p, ok, err := c.find(10, 20)
	if err != nil || !ok {
		return nil, err
	}
	return []model.Point{p}, nil
}

// textValue joins the MTEXT continuation chunks (group 3) with the final
// chunk (group 1).
func textValue(e entity) string {
	var b strings.Builder
	var last string
	for _, t := range e.tags {
		switch t.code {
		case 3:
			b.WriteString(t.value)
		case 1:
			last = t.value
		}
	}
	b.WriteString(last)
	return b.String()
}
