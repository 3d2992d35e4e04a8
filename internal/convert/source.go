package convert

import "github.com/mohammed-shakir/dxf2gml/internal/core/model"

// Source yields the parcel features of one drawing in drawing order.
type Source interface {
	Features() ([]model.ParcelFeature, error)
}

// Features is an in-memory Source.
type Features []model.ParcelFeature

func (f Features) Features() ([]model.ParcelFeature, error) { return f, nil }

// SourceFunc adapts a function to Source.
type SourceFunc func() ([]model.ParcelFeature, error)

func (fn SourceFunc) Features() ([]model.ParcelFeature, error) { return fn() }
