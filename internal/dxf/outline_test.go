package dxf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
)

func TestWriteOutline_OnlyClosedSolids(t *testing.T) {
	ring := []model.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}}
	features := []model.ParcelFeature{
		{Layer: "12345678901234", Tag: model.SolidTag, Ring: ring, Area: 100},
		{Layer: "12345678901235", Tag: model.SolidTag, Ring: ring[:3]},
		{Layer: "12345678901236", Tag: "TEXT", Ring: ring[:1]},
		{Layer: "12345678901237", Tag: model.SolidTag, Ring: ring, Area: 100},
	}
	path := filepath.Join(t.TempDir(), "outline.dxf")

	n, err := WriteOutline(path, features)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	d, err := Open(path)
	require.NoError(t, err)
	fs, _ := d.Features()
	var layers []string
	for _, f := range fs {
		if f.Entity == "LWPOLYLINE" {
			layers = append(layers, f.Layer)
			assert.InDelta(t, 100.0, f.Area, 1e-6)
			assert.Len(t, f.Ring, 5)
			assert.Equal(t, f.Ring[0], f.Ring[len(f.Ring)-1])
		}
	}
	assert.Equal(t, []string{"12345678901234", "12345678901237"}, layers)
}

func TestWriteOutline_ReusesLayers(t *testing.T) {
	ring := []model.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 0}}
	features := []model.ParcelFeature{
		{Layer: "PARCEL_A", Tag: model.SolidTag, Ring: ring},
		{Layer: "0", Tag: model.SolidTag, Ring: ring},
		{Layer: "PARCEL_A", Tag: model.SolidTag, Ring: ring},
	}
	path := filepath.Join(t.TempDir(), "outline.dxf")
	n, err := WriteOutline(path, features)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	d, err := Open(path)
	require.NoError(t, err)
	fs, _ := d.Features()
	var layers []string
	for _, f := range fs {
		if f.Entity == "LWPOLYLINE" {
			layers = append(layers, f.Layer)
		}
	}
	assert.Equal(t, []string{"PARCEL_A", "0", "PARCEL_A"}, layers)
}
