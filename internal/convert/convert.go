// Package convert classifies the parcels of one drawing and encodes them as a
// Catastro GML document.
package convert

import (
	"fmt"

	"github.com/mohammed-shakir/dxf2gml/internal/core/crs"
	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
	"github.com/mohammed-shakir/dxf2gml/internal/core/ogc"
	"github.com/mohammed-shakir/dxf2gml/internal/geometry"
)

// ParseCode validates a user supplied code. Empty input yields crs.Default.
func ParseCode(s string) (crs.Code, error) {
	c, err := crs.Parse(s)
	if err != nil {
		return "", &ConfigurationError{Code: string(c)}
	}
	return c, nil
}

// Convert reads every feature of src once, in order, and builds the document.
// An unsupported code fails before src is read.
func Convert(src Source, code crs.Code, opts ...Option) (model.ConversionResult, error) {
	if !crs.Supported(code) {
		return model.ConversionResult{}, &ConfigurationError{Code: string(code)}
	}
	o := NewOptions(opts...)

	features, err := src.Features()
	if err != nil {
		return model.ConversionResult{}, &SourceReadError{Err: err}
	}

	st := newRunState(code, o, len(features))
	for _, f := range features {
		if err := st.add(f); err != nil {
			return model.ConversionResult{}, err
		}
	}

	doc, err := ogc.Encode(st.envelopeID(), st.parcels)
	if err != nil {
		return model.ConversionResult{}, fmt.Errorf("encode document: %w", err)
	}
	return model.ConversionResult{
		Namespace:   st.namespace,
		Scheme:      st.scheme,
		Report:      st.report,
		Diagnostics: st.diagnostics,
		Parcels:     st.parcels,
		Skipped:     st.skipped,
		Document:    doc,
	}, nil
}

// runState is folded over the features of one run.
type runState struct {
	code          crs.Code
	opts          Options
	scheme        model.ReferenceScheme
	namespace     string
	baseNamespace string
	report        []string
	parcels       []model.EncodedParcel
	diagnostics   []model.Diagnostic
	skipped       int
	seen          map[string]int
}

func newRunState(code crs.Code, opts Options, n int) *runState {
	return &runState{
		code:   code,
		opts:   opts,
		report: make([]string, 0, n),
		seen:   make(map[string]int),
	}
}

func (st *runState) add(f model.ParcelFeature) error {
	scheme := model.SchemeOf(f.Layer)
	switch st.scheme {
	case model.SchemeUnknown:
		st.scheme = scheme
		st.namespace = scheme.Namespace()
		st.baseNamespace = scheme.BaseNamespace()
	case scheme:
	default:
		return &MixedReferenceError{Expected: st.scheme, Reference: f.Layer}
	}

	if !f.Solid() {
		st.report = append(st.report, NonSolidLine(f.Layer))
		st.skipped++
		return nil
	}
	if !geometry.Closed(f.Ring) {
		st.report = append(st.report, UnclosedLine(f.Layer))
		st.skipped++
		return nil
	}

	if computed := geometry.Area(f.Ring); !geometry.AreaMatches(f.Area, computed, st.opts.AbsTolerance, st.opts.RelTolerance) {
		mismatch := &AreaMismatchError{Reference: f.Layer, Given: f.Area, Computed: computed}
		if st.opts.StrictArea {
			return mismatch
		}
		st.diagnostics = append(st.diagnostics, model.Diagnostic{
			Kind:      model.DiagAreaMismatch,
			Reference: f.Layer,
			Message:   mismatch.Error(),
		})
	}

	st.seen[f.Layer]++
	if st.seen[f.Layer] == 2 {
		st.diagnostics = append(st.diagnostics, model.Diagnostic{
			Kind:      model.DiagDuplicateReference,
			Reference: f.Layer,
			Message:   fmt.Sprintf("reference %s appears in more than one solid polygon", f.Layer),
		})
	}

	st.report = append(st.report, ParcelLine(f.Layer, f.Area))
	st.parcels = append(st.parcels, st.encode(f, scheme))
	return nil
}

// envelopeID is the run namespace, or empty when no parcel was encoded.
func (st *runState) envelopeID() string {
	if len(st.parcels) == 0 {
		return ""
	}
	return st.namespace
}

func (st *runState) encode(f model.ParcelFeature, scheme model.ReferenceScheme) model.EncodedParcel {
	p := model.EncodedParcel{
		Label:         f.Layer,
		Area:          f.Area,
		Coords:        f.Ring,
		Namespace:     st.namespace,
		BaseNamespace: st.baseNamespace,
		SRSName:       st.code.SRSName(),
	}
	if scheme == model.SchemeCadastral {
		p.CadastralReference = f.Layer
	}
	return p
}
