package crs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    Code
		wantErr bool
	}{
		{in: "", want: Default},
		{in: "25831", want: "25831"},
		{in: " EPSG:25828 ", want: "25828"},
		{in: "epsg:25829", want: "25829"},
		{in: "4326", wantErr: true},
		{in: "EPSG:", wantErr: true},
		{in: "2583O", wantErr: true},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestCodes_AllowList(t *testing.T) {
	assert.Equal(t, []Code{"25828", "25829", "25830", "25831"}, Codes())
	assert.True(t, Supported(Default))
	assert.False(t, Supported("32630"))
	assert.Equal(t, "ETRS89 / UTM zone 30N", Code("25830").Name())
	assert.Empty(t, Code("1").Name())
}

func TestSRSName(t *testing.T) {
	assert.Equal(t, "http://www.opengis.net/def/crs/EPSG/0/25830", Code("25830").SRSName())
}

func TestUTM_ToWGS84_ReferencePoints(t *testing.T) {
	p, err := Code("25830").Projection()
	require.NoError(t, err)

	lon, lat := p.ToWGS84(500000, 0)
	assert.InDelta(t, -3.0, lon, 1e-7)
	assert.InDelta(t, 0.0, lat, 1e-7)

	// Puerta del Sol, Madrid
	lon, lat = p.ToWGS84(440291.28434792394, 4474254.600293564)
	assert.InDelta(t, -3.703790, lon, 1e-6)
	assert.InDelta(t, 40.416775, lat, 1e-6)
}

func TestUTM_RoundTrip(t *testing.T) {
	cases := []struct {
		code     Code
		lon, lat float64
	}{
		{code: "25828", lon: -16.2518, lat: 28.4636},
		{code: "25829", lon: -8.5448, lat: 42.8782},
		{code: "25830", lon: -3.7038, lat: 40.4168},
		{code: "25831", lon: 2.1686, lat: 41.3874},
	}
	for _, tc := range cases {
		p, err := tc.code.Projection()
		require.NoError(t, err)
		assert.Equal(t, tc.code, p.EPSG())

		x, y := p.FromWGS84(tc.lon, tc.lat)
		lon, lat := p.ToWGS84(x, y)
		assert.InDelta(t, tc.lon, lon, 1e-6, "code %s", tc.code)
		assert.InDelta(t, tc.lat, lat, 1e-6, "code %s", tc.code)
	}
}

func TestUTM_FromWGS84_CentralMeridian(t *testing.T) {
	p, err := Code("25830").Projection()
	require.NoError(t, err)
	x, y := p.FromWGS84(-3, 42)
	assert.InDelta(t, 500000.0, x, 1e-3)
	assert.InDelta(t, 4649776.2249, y, 0.01)
}

func TestProjection_Unsupported(t *testing.T) {
	_, err := Code("3857").Projection()
	assert.Error(t, err)
}
