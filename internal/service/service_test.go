package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/dxf2gml/internal/cache/memo"
	"github.com/mohammed-shakir/dxf2gml/internal/cache/redisstore"
	"github.com/mohammed-shakir/dxf2gml/internal/convert"
	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
	"github.com/mohammed-shakir/dxf2gml/internal/events"
)

func pairs(kv ...any) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, "%v\n%v\n", kv[i], kv[i+1])
	}
	return b.String()
}

// solidHatch is a 10 m square at the given easting.
func solidHatch(layer string, x0 float64) string {
	return pairs(0, "HATCH", 8, layer, 100, "AcDbHatch", 2, "SOLID", 70, 1, 91, 1, 92, 3, 72, 0, 73, 1, 93, 4,
		10, 440000+x0, 20, 4474000, 10, 440010+x0, 20, 4474000, 10, 440010+x0, 20, 4474010, 10, 440000+x0, 20, 4474010,
		97, 0, 75, 0, 76, 1)
}

func text(layer, value string) string {
	return pairs(0, "TEXT", 8, layer, 10, 440000, 20, 4474000, 1, value)
}

func drawing(ents ...string) []byte {
	return []byte(pairs(0, "SECTION", 2, "ENTITIES") + strings.Join(ents, "") + pairs(0, "ENDSEC", 0, "EOF"))
}

type recordingPublisher struct {
	mu   sync.Mutex
	evs  []events.ParcelsConverted
	fail error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.ParcelsConverted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evs = append(p.evs, ev)
	return p.fail
}

func TestConvert_Success(t *testing.T) {
	s := New(Deps{})
	out, err := s.Convert(context.Background(), Request{
		Name: "plano",
		Data: drawing(solidHatch("12345678901234", 0), solidHatch("12345678901235", 20)),
	})
	require.NoError(t, err)

	assert.Equal(t, "plano", out.Name)
	assert.Equal(t, "25830", out.Code.String())
	assert.Equal(t, model.NamespaceCadastral, out.Namespace)
	assert.Equal(t, "cadastral", out.Scheme)
	assert.Equal(t, 2, out.Parcels)
	assert.Equal(t, []string{
		"Reference: 12345678901234, (100.0000 m^2)",
		"Reference: 12345678901235, (100.0000 m^2)",
	}, out.Report)
	assert.True(t, strings.HasPrefix(string(out.Document), `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.False(t, out.Cached)
}

func TestConvert_BadCodeBeforeParsing(t *testing.T) {
	s := New(Deps{})
	_, err := s.Convert(context.Background(), Request{Name: "x", Data: []byte("garbage"), Code: "4326"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, convert.ErrConfiguration))
}

func TestConvert_UnreadableDrawing(t *testing.T) {
	s := New(Deps{})
	_, err := s.Convert(context.Background(), Request{Name: "x", Data: []byte("garbage")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, convert.ErrSourceRead))
}

func TestConvert_CacheHitAndFailuresNotCached(t *testing.T) {
	c := memo.New(memo.Config{}, nil, nil)
	s := New(Deps{Cache: c})
	ctx := context.Background()
	data := drawing(solidHatch("PARCEL_A", 0))

	first, err := s.Convert(ctx, Request{Name: "a", Data: data})
	require.NoError(t, err)
	second, err := s.Convert(ctx, Request{Name: "renamed", Data: data})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, "renamed", second.Name)
	assert.Equal(t, first.Document, second.Document)
	assert.Equal(t, first.Report, second.Report)
	assert.Equal(t, 1, c.Len())

	mixed := drawing(solidHatch("12345678901234", 0), solidHatch("PARCEL_A", 20))
	for range 2 {
		_, err := s.Convert(ctx, Request{Name: "m", Data: mixed})
		assert.True(t, errors.Is(err, convert.ErrMixedReference))
	}
	assert.Equal(t, 1, c.Len())
}

func TestConvert_OptionsPartitionCache(t *testing.T) {
	c := memo.New(memo.Config{}, nil, nil)
	ctx := context.Background()
	data := drawing(solidHatch("PARCEL_A", 0))

	_, err := New(Deps{Cache: c}).Convert(ctx, Request{Data: data})
	require.NoError(t, err)
	out, err := New(Deps{Cache: c, Options: convert.NewOptions(convert.WithStrictArea(true))}).Convert(ctx, Request{Data: data})
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Equal(t, 2, c.Len())
}

func TestConvert_SharedRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rc, err := redisstore.New(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	ctx := context.Background()
	data := drawing(solidHatch("PARCEL_A", 0))
	a := New(Deps{Cache: memo.New(memo.Config{}, rc, nil)})
	b := New(Deps{Cache: memo.New(memo.Config{}, rc, nil)})

	_, err = a.Convert(ctx, Request{Data: data})
	require.NoError(t, err)
	out, err := b.Convert(ctx, Request{Data: data})
	require.NoError(t, err)
	assert.True(t, out.Cached)
}

func TestConvert_PublishesParcelEvents(t *testing.T) {
	pub := &recordingPublisher{}
	s := New(Deps{Publisher: pub})
	ctx := context.Background()

	_, err := s.Convert(ctx, Request{Name: "plano", Data: drawing(solidHatch("PARCEL_A", 0), solidHatch("PARCEL_B", 20))})
	require.NoError(t, err)
	require.Len(t, pub.evs, 1)
	ev := pub.evs[0]
	assert.Equal(t, "plano", ev.Source)
	assert.Equal(t, model.NamespaceLocal, ev.Namespace)
	require.Len(t, ev.Parcels, 2)
	assert.Equal(t, "PARCEL_B", ev.Parcels[1].Reference)
	assert.NoError(t, ev.Validate())

	// only skipped features: nothing to announce
	_, err = s.Convert(ctx, Request{Name: "notes", Data: drawing(text("PARCEL_A", "hello"))})
	require.NoError(t, err)
	assert.Len(t, pub.evs, 1)
}

func TestConvert_PublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{fail: errors.New("broker down")}
	s := New(Deps{Publisher: pub})
	out, err := s.Convert(context.Background(), Request{Data: drawing(solidHatch("PARCEL_A", 0))})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Parcels)
}
