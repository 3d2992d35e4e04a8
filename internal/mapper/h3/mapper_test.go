package h3mapper

import (
	"reflect"
	"sort"
	"testing"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
	"github.com/mohammed-shakir/dxf2gml/internal/mapper"
)

var _ mapper.Interface = (*Mapper)(nil)

// roughly 1.1 km x 1.1 km around Puerta del Sol
var solBlock = []model.Point{
	{X: -3.710, Y: 40.410},
	{X: -3.697, Y: 40.410},
	{X: -3.697, Y: 40.420},
	{X: -3.710, Y: 40.420},
	{X: -3.710, Y: 40.410},
}

func TestCellForPoint_MatchesLibrary(t *testing.T) {
	m := New()
	p := model.Point{X: -3.70379, Y: 40.416775}

	got, err := m.CellForPoint(p, DefaultRes)
	if err != nil {
		t.Fatalf("CellForPoint: %v", err)
	}
	want, err := h3.LatLngToCell(h3.LatLng{Lat: p.Y, Lng: p.X}, DefaultRes)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	if got != want.String() {
		t.Fatalf("cell=%s want %s", got, want.String())
	}
}

func TestCellsForRing_SortedUniqueDeterministic(t *testing.T) {
	m := New()

	cells, err := m.CellsForRing(solBlock, 9)
	if err != nil {
		t.Fatalf("CellsForRing: %v", err)
	}
	if len(cells) == 0 {
		t.Fatalf("expected non-empty cells for a 1 km block")
	}
	if !sort.StringsAreSorted([]string(cells)) {
		t.Fatalf("cells must be sorted")
	}
	if hasDups(cells) {
		t.Fatalf("cells must be de-duplicated")
	}
	again, err := m.CellsForRing(solBlock, 9)
	if err != nil {
		t.Fatalf("CellsForRing second call: %v", err)
	}
	if !reflect.DeepEqual(cells, again) {
		t.Fatalf("expected identical output for identical input")
	}

	coarse, err := m.CellsForRing(solBlock, 8)
	if err != nil {
		t.Fatalf("CellsForRing res 8: %v", err)
	}
	if len(coarse) > len(cells) {
		t.Fatalf("coarser resolution produced more cells (%d > %d)", len(coarse), len(cells))
	}
}

func TestBounds_InvalidResolutionAndDegenerateRing(t *testing.T) {
	m := New()
	p := model.Point{X: -3.7, Y: 40.4}

	if _, err := m.CellForPoint(p, -1); err == nil {
		t.Fatalf("expected error for res=-1")
	}
	if _, err := m.CellsForRing(solBlock, 16); err == nil {
		t.Fatalf("expected error for res=16")
	}
	if _, err := m.CellsForRing(solBlock[:2], 8); err == nil {
		t.Fatalf("expected error for degenerate ring")
	}
}

func hasDups(s []string) bool {
	seen := map[string]struct{}{}
	for _, v := range s {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}
