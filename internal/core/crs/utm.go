package crs

import "github.com/wroge/wgs84"

// Projection defines conversion between a projected CRS and WGS84 lon/lat.
type Projection interface {
	ToWGS84(x, y float64) (lon, lat float64)
	FromWGS84(lon, lat float64) (x, y float64)
	EPSG() Code
}

// epsgLonLat is WGS84 geographic, longitude first.
const epsgLonLat = 4326

type transformFunc = func(a, b, c float64) (float64, float64, float64)

// UTM is an ETRS89 transverse mercator zone. The GRS80 to WGS84 offset is
// below a metre, far under what the H3 resolutions used here resolve.
type UTM struct {
	code    Code
	inverse transformFunc
	forward transformFunc
}

func newUTM(c Code, epsg int) *UTM {
	return &UTM{
		code:    c,
		inverse: wgs84.Transform(wgs84.EPSG(epsg), wgs84.EPSG(epsgLonLat)),
		forward: wgs84.Transform(wgs84.EPSG(epsgLonLat), wgs84.EPSG(epsg)),
	}
}

func (u *UTM) EPSG() Code { return u.code }

func (u *UTM) FromWGS84(lon, lat float64) (x, y float64) {
	x, y, _ = u.forward(lon, lat, 0)
	return x, y
}

func (u *UTM) ToWGS84(x, y float64) (lon, lat float64) {
	lon, lat, _ = u.inverse(x, y, 0)
	return lon, lat
}
