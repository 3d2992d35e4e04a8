package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/dxf2gml/internal/convert"
)

func pairs(kv ...any) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, "%v\n%v\n", kv[i], kv[i+1])
	}
	return b.String()
}

func solidHatch(layer string) string {
	return pairs(0, "HATCH", 8, layer, 100, "AcDbHatch", 2, "SOLID", 70, 1, 91, 1, 92, 3, 72, 0, 73, 1, 93, 4,
		10, 0, 20, 0, 10, 10, 20, 0, 10, 10, 20, 10, 10, 0, 20, 10, 97, 0, 75, 0, 76, 1)
}

func drawing(layers ...string) string {
	var ents string
	for _, l := range layers {
		ents += solidHatch(l)
	}
	return pairs(0, "SECTION", 2, "ENTITIES") + ents + pairs(0, "ENDSEC", 0, "EOF")
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestRun_DirectoryContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "b_good.dxf", drawing("12345678901234", "12345678901235"))
	write(t, dir, "a_broken.dxf", "not a drawing")
	write(t, dir, "c_mixed.DXF", drawing("12345678901234", "PARCEL_A"))
	write(t, dir, "notes.txt", "ignored")
	write(t, dir, "old.outline.dxf", drawing("PARCEL_A"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.dxf"), 0o700))

	var calls atomic.Int32
	sum, err := Run(context.Background(), dir, Options{
		Code:     "25830",
		Workers:  2,
		Progress: func(done, total int) { calls.Add(1); assert.Equal(t, 3, total) },
	})
	require.NoError(t, err)
	require.Len(t, sum.Results, 3)
	assert.False(t, sum.OK())
	assert.Len(t, sum.Failed(), 2)
	assert.EqualValues(t, 3, calls.Load())

	broken, good, mixed := sum.Results[0], sum.Results[1], sum.Results[2]
	assert.Equal(t, "a_broken.dxf", filepath.Base(broken.Path))
	assert.Error(t, broken.Err)
	assert.NoFileExists(t, filepath.Join(dir, "a_broken.gml"))

	require.NoError(t, good.Err)
	assert.Equal(t, filepath.Join(dir, "b_good.gml"), good.Output)
	assert.Equal(t, 2, good.Parcels)
	assert.Len(t, good.Report, 2)
	doc, err := os.ReadFile(good.Output)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `id="ES.SDGC.CP"`)

	assert.True(t, errors.Is(mixed.Err, convert.ErrMixedReference))
	assert.NoFileExists(t, filepath.Join(dir, "c_mixed.gml"))
}

func TestRun_SingleFileWithOutline(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "finca.dxf", drawing("PARCEL_A"))

	sum, err := Run(context.Background(), p, Options{Code: "25829", Outline: true})
	require.NoError(t, err)
	require.True(t, sum.OK())
	require.Len(t, sum.Results, 1)

	r := sum.Results[0]
	assert.FileExists(t, filepath.Join(dir, "finca.gml"))
	assert.Equal(t, filepath.Join(dir, "finca.outline.dxf"), r.Outline)
	assert.FileExists(t, r.Outline)
	assert.Positive(t, r.Duration)
}

func TestConvertFile_MalformedDrawingIsSourceError(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "broken.dxf", pairs(0, "SECTION", 2, "ENTITIES", 0, "TEXT", 8, "A"))

	r := ConvertFile(p, Options{Code: "25830"})
	require.Error(t, r.Err)
	assert.True(t, errors.Is(r.Err, convert.ErrSourceRead))
	assert.Equal(t, "source_read", convert.Kind(r.Err))
	assert.Empty(t, r.Output)
}

func TestConvertFile_MissingFileIsSourceError(t *testing.T) {
	r := ConvertFile(filepath.Join(t.TempDir(), "gone.dxf"), Options{Code: "25830"})
	assert.True(t, errors.Is(r.Err, convert.ErrSourceRead))
}

// holedHatch is a solid 10x10 square with a 2x2 island.
func holedHatch(layer string) string {
	return pairs(0, "HATCH", 8, layer, 100, "AcDbHatch", 2, "SOLID", 70, 1, 91, 2,
		92, 3, 72, 0, 73, 1, 93, 4, 10, 0, 20, 0, 10, 10, 20, 0, 10, 10, 20, 10, 10, 0, 20, 10, 97, 0,
		92, 2, 72, 0, 73, 1, 93, 4, 10, 4, 20, 4, 10, 6, 20, 4, 10, 6, 20, 6, 10, 4, 20, 6, 97, 0,
		75, 0, 76, 1)
}

func TestConvertFile_HatchWithHoleFailsStrictArea(t *testing.T) {
	dir := t.TempDir()
	src := pairs(0, "SECTION", 2, "ENTITIES") + holedHatch("PARCEL_A") + pairs(0, "ENDSEC", 0, "EOF")
	p := write(t, dir, "finca.dxf", src)

	r := ConvertFile(p, Options{Code: "25830", Convert: []convert.Option{convert.WithStrictArea(true)}})
	require.Error(t, r.Err)
	assert.True(t, errors.Is(r.Err, convert.ErrAreaMismatch))

	r = ConvertFile(p, Options{Code: "25830"})
	require.NoError(t, r.Err)
	require.Len(t, r.Diagnostics, 1)
	assert.Contains(t, r.Diagnostics[0].Message, "PARCEL_A")
}

func TestRun_BadCodeFailsBeforeReading(t *testing.T) {
	_, err := Run(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{Code: "4326"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, convert.ErrConfiguration))
}

func TestRun_MissingPath(t *testing.T) {
	_, err := Run(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{Code: "25830"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, convert.ErrConfiguration))
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.dxf", drawing("PARCEL_A"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := Run(ctx, dir, Options{Code: "25830"})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, sum.Results, 1)
	assert.ErrorIs(t, sum.Results[0].Err, context.Canceled)
}

func TestRun_EmptyDirectory(t *testing.T) {
	sum, err := Run(context.Background(), t.TempDir(), Options{Code: "25830"})
	require.NoError(t, err)
	assert.Empty(t, sum.Results)
	assert.True(t, sum.OK())
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("x", "plan.gml"), OutputPath(filepath.Join("x", "plan.DXF")))
	assert.Equal(t, filepath.Join("x", "plan.outline.dxf"), OutlinePath(filepath.Join("x", "plan.dxf")))
}

func TestRun_GeoJSON(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "finca.dxf", drawing("PARCEL_A"))

	sum, err := Run(context.Background(), p, Options{Code: "25830", GeoJSON: true})
	require.NoError(t, err)
	require.True(t, sum.OK())

	r := sum.Results[0]
	assert.Equal(t, filepath.Join(dir, "finca.geojson"), r.GeoJSON)
	b, err := os.ReadFile(r.GeoJSON)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"FeatureCollection"`)
	assert.Contains(t, string(b), `"reference":"PARCEL_A"`)
}
