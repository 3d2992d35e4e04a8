// Package ogc builds the OGC documents produced by the converter: a WFS 2.0
// FeatureCollection of INSPIRE cadastral parcels encoded in GML 3.2.
package ogc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
)

const (
	NSWFS   = "http://www.opengis.net/wfs/2.0"
	NSGML   = "http://www.opengis.net/gml/3.2"
	NSGMD   = "http://www.isotc211.org/2005/gmd"
	NSOGC   = "http://www.opengis.net/ogc"
	NSXLink = "http://www.w3.org/1999/xlink"
	NSCP    = "http://inspire.ec.europa.eu/schemas/cp/4.0"
	NSBase  = "urn:x-inspire:specification:gmlas:BaseTypes:3.2"
	NSBase3 = "http://inspire.ec.europa.eu/schemas/base/3.3"
	NSXSI   = "http://www.w3.org/2001/XMLSchema-instance"

	schemaLocation = NSWFS + " http://schemas.opengis.net/wfs/2.0/wfs.xsd " +
		NSCP + " http://inspire.ec.europa.eu/schemas/cp/4.0/CadastralParcels.xsd"

	voidUnpopulated = "http://inspire.ec.europa.eu/codelist/VoidReasonValue/Unpopulated"

	headerComment = " Parcela Catastral para entregar a la D.G. del Catastro "
)

type FeatureCollection struct {
	XMLName        xml.Name `xml:"FeatureCollection"`
	GML            string   `xml:"xmlns:gml,attr"`
	GMD            string   `xml:"xmlns:gmd,attr"`
	OGC            string   `xml:"xmlns:ogc,attr"`
	XLink          string   `xml:"xmlns:xlink,attr"`
	CP             string   `xml:"xmlns:cp,attr"`
	Base           string   `xml:"xmlns:base,attr"`
	XSI            string   `xml:"xmlns:xsi,attr"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr"`
	XMLNS          string   `xml:"xmlns,attr"`
	NumberMatched  int      `xml:"numberMatched,attr"`
	NumberReturned int      `xml:"numberReturned,attr"`
	ID             string   `xml:"id,attr"`
	Members        []Member `xml:"member"`
}

type Member struct {
	Parcel CadastralParcel `xml:"cp:CadastralParcel"`
}

type CadastralParcel struct {
	ID                         string    `xml:"gml:id,attr"`
	AreaValue                  AreaValue `xml:"cp:areaValue"`
	BeginLifespanVersion       NilValue  `xml:"cp:beginLifespanVersion"`
	EndLifespanVersion         NilValue  `xml:"cp:endLifespanVersion"`
	Geometry                   Geometry  `xml:"cp:geometry"`
	InspireID                  InspireID `xml:"cp:inspireId"`
	Label                      string    `xml:"cp:label"`
	NationalCadastralReference string    `xml:"cp:nationalCadastralReference"`
}

type AreaValue struct {
	UOM   string `xml:"uom,attr"`
	Value string `xml:",chardata"`
}

type NilValue struct {
	Nil       string `xml:"xsi:nil,attr"`
	NilReason string `xml:"nilReason,attr"`
}

type Geometry struct {
	MultiSurface MultiSurface `xml:"gml:MultiSurface"`
}

type MultiSurface struct {
	ID            string        `xml:"gml:id,attr"`
	SRSName       string        `xml:"srsName,attr"`
	SurfaceMember SurfaceMember `xml:"gml:surfaceMember"`
}

type SurfaceMember struct {
	Surface Surface `xml:"gml:Surface"`
}

type Surface struct {
	ID      string  `xml:"gml:id,attr"`
	SRSName string  `xml:"srsName,attr"`
	Patches Patches `xml:"gml:patches"`
}

type Patches struct {
	PolygonPatch PolygonPatch `xml:"gml:PolygonPatch"`
}

type PolygonPatch struct {
	Exterior Exterior `xml:"gml:exterior"`
}

type Exterior struct {
	LinearRing LinearRing `xml:"gml:LinearRing"`
}

type LinearRing struct {
	PosList PosList `xml:"gml:posList"`
}

// PosList renders each "x y" pair on its own line.
type PosList struct {
	Coords []model.Point
}

func (p PosList) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = append(start.Attr,
		xml.Attr{Name: xml.Name{Local: "srsDimension"}, Value: "2"},
		xml.Attr{Name: xml.Name{Local: "count"}, Value: strconv.Itoa(len(p.Coords))},
	)
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	// EncodeToken keeps the newlines that field marshaling would escape
	if err := e.EncodeToken(xml.CharData(FormatPosList(p.Coords))); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type InspireID struct {
	Base       string     `xml:"xmlns:base,attr"`
	Identifier Identifier `xml:"base:Identifier"`
}

type Identifier struct {
	LocalID   string `xml:"base:localId"`
	Namespace string `xml:"base:namespace"`
}

// FormatPosList renders coordinates as "x y" pairs, each preceded by a newline.
func FormatPosList(coords []model.Point) string {
	var b strings.Builder
	for _, c := range coords {
		b.WriteByte('\n')
		b.WriteString(FormatNumber(c.X))
		b.WriteByte(' ')
		b.WriteString(FormatNumber(c.Y))
	}
	return b.String()
}

// FormatNumber renders the shortest decimal that round-trips, always with a
// fractional part and never in exponent notation.
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// NewFeatureCollection assembles the document model for the given parcels.
func NewFeatureCollection(namespace string, parcels []model.EncodedParcel) FeatureCollection {
	fc := FeatureCollection{
		GML:            NSGML,
		GMD:            NSGMD,
		OGC:            NSOGC,
		XLink:          NSXLink,
		CP:             NSCP,
		Base:           NSBase,
		XSI:            NSXSI,
		SchemaLocation: schemaLocation,
		XMLNS:          NSWFS,
		NumberMatched:  len(parcels),
		NumberReturned: len(parcels),
		ID:             namespace,
		Members:        make([]Member, 0, len(parcels)),
	}
	for _, p := range parcels {
		fc.Members = append(fc.Members, Member{Parcel: newParcel(p)})
	}
	return fc
}

func newParcel(p model.EncodedParcel) CadastralParcel {
	id := p.Namespace + "." + p.Label
	nilValue := NilValue{Nil: "true", NilReason: voidUnpopulated}
	return CadastralParcel{
		ID:                   id,
		AreaValue:            AreaValue{UOM: "m2", Value: FormatNumber(p.Area)},
		BeginLifespanVersion: nilValue,
		EndLifespanVersion:   nilValue,
		Geometry: Geometry{MultiSurface: MultiSurface{
			ID:      "MultiSurface_" + id,
			SRSName: p.SRSName,
			SurfaceMember: SurfaceMember{Surface: Surface{
				ID:      "Surface_" + id,
				SRSName: p.SRSName,
				Patches: Patches{PolygonPatch: PolygonPatch{Exterior: Exterior{
					LinearRing: LinearRing{PosList: PosList{Coords: p.Coords}},
				}}},
			}},
		}},
		InspireID: InspireID{
			Base: NSBase3,
			Identifier: Identifier{
				LocalID:   p.Label,
				Namespace: p.BaseNamespace,
			},
		},
		NationalCadastralReference: p.CadastralReference,
	}
}

// Encode serializes the envelope and its members into an indented document.
func Encode(namespace string, parcels []model.EncodedParcel) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.EncodeToken(xml.Comment(headerComment)); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	buf.WriteByte('\n')

	enc.Indent("", "  ")
	if err := enc.Encode(NewFeatureCollection(namespace, parcels)); err != nil {
		return nil, fmt.Errorf("encode feature collection: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
