// Package model defines core domain types shared across the converter.
package model

import (
	"fmt"
	"unicode/utf8"
)

// CadastralRefLen is the length of an official cadastral reference.
const CadastralRefLen = 14

// SolidTag marks a closed, fillable polygon in the drawing.
const SolidTag = "SOLID"

const (
	NamespaceCadastral = "ES.SDGC.CP"
	NamespaceLocal     = "ES.LOCAL"
)

type Point struct {
	X, Y float64
}

// ParcelFeature is one drawing entity as yielded by a geometry source.
type ParcelFeature struct {
	Layer  string
	Tag    string
	Ring   []Point
	Area   float64
	Entity string
	Handle string
}

func (f ParcelFeature) Solid() bool { return f.Tag == SolidTag }

// String identifies the feature in diagnostics
func (f ParcelFeature) String() string {
	if f.Handle != "" {
		return fmt.Sprintf("%s[%s]", f.Layer, f.Handle)
	}
	return f.Layer
}

type ReferenceScheme int

const (
	SchemeUnknown ReferenceScheme = iota
	SchemeCadastral
	SchemeLocal
)

func SchemeOf(reference string) ReferenceScheme {
	if utf8.RuneCountInString(reference) == CadastralRefLen {
		return SchemeCadastral
	}
	return SchemeLocal
}

func (s ReferenceScheme) String() string {
	switch s {
	case SchemeCadastral:
		return "cadastral"
	case SchemeLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Namespace returns the envelope namespace for the scheme.
func (s ReferenceScheme) Namespace() string {
	switch s {
	case SchemeCadastral:
		return NamespaceCadastral
	case SchemeLocal:
		return NamespaceLocal
	default:
		return ""
	}
}

// BaseNamespace returns the inspireId namespace for the scheme.
func (s ReferenceScheme) BaseNamespace() string {
	switch s {
	case SchemeCadastral:
		return NamespaceCadastral
	case SchemeLocal:
		return NamespaceLocal + ".CP"
	default:
		return ""
	}
}

// EncodedParcel is the data carried by one document member.
type EncodedParcel struct {
	Label              string
	Area               float64
	Coords             []Point
	CadastralReference string
	Namespace          string
	BaseNamespace      string
	SRSName            string
}

type DiagnosticKind string

const (
	DiagAreaMismatch       DiagnosticKind = "area_mismatch"
	DiagDuplicateReference DiagnosticKind = "duplicate_reference"
)

type Diagnostic struct {
	Kind      DiagnosticKind `json:"kind"`
	Reference string         `json:"reference"`
	Message   string         `json:"message"`
}

// ConversionResult is the successful outcome of one conversion run.
type ConversionResult struct {
	Namespace   string
	Scheme      ReferenceScheme
	Report      []string
	Diagnostics []Diagnostic
	Parcels     []EncodedParcel
	Skipped     int
	Document    []byte
}
