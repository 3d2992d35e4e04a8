// Package crs holds the coordinate reference systems accepted for cadastral
// submissions and the projection back to geographic coordinates.
package crs

import (
	"fmt"
	"slices"
	"strings"
)

// Code is an EPSG code in the accepted allow-list.
type Code string

// Default is used when the caller does not pass a code.
const Default Code = "25830"

type zone struct {
	code Code
	epsg int
	name string
}

// ETRS89 / UTM zones covering Spain.
var zones = []zone{
	{code: "25828", epsg: 25828, name: "ETRS89 / UTM zone 28N"},
	{code: "25829", epsg: 25829, name: "ETRS89 / UTM zone 29N"},
	{code: "25830", epsg: 25830, name: "ETRS89 / UTM zone 30N"},
	{code: "25831", epsg: 25831, name: "ETRS89 / UTM zone 31N"},
}

// Codes returns the allow-list in ascending order.
func Codes() []Code {
	out := make([]Code, 0, len(zones))
	for _, z := range zones {
		out = append(out, z.code)
	}
	return out
}

func lookup(c Code) (zone, bool) {
	i := slices.IndexFunc(zones, func(z zone) bool { return z.code == c })
	if i < 0 {
		return zone{}, false
	}
	return zones[i], true
}

// Supported reports whether c is in the allow-list.
func Supported(c Code) bool {
	_, ok := lookup(c)
	return ok
}

// Parse trims s and accepts an optional "EPSG:" prefix. An empty string yields Default.
func Parse(s string) (Code, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default, nil
	}
	if len(s) > 5 && strings.EqualFold(s[:5], "EPSG:") {
		s = strings.TrimSpace(s[5:])
	}
	c := Code(s)
	if !Supported(c) {
		return c, fmt.Errorf("unsupported EPSG code %q", s)
	}
	return c, nil
}

// SRSName is the URI used in GML srsName attributes.
func (c Code) SRSName() string {
	return "http://www.opengis.net/def/crs/EPSG/0/" + string(c)
}

func (c Code) String() string { return string(c) }

// Name returns the human readable CRS name, empty when unsupported.
func (c Code) Name() string {
	z, ok := lookup(c)
	if !ok {
		return ""
	}
	return z.name
}

// Projection converts projected coordinates of c to WGS84 degrees.
func (c Code) Projection() (Projection, error) {
	z, ok := lookup(c)
	if !ok {
		return nil, fmt.Errorf("unsupported EPSG code %q", string(c))
	}
	return newUTM(c, z.epsg), nil
}
