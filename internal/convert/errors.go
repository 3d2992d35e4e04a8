package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mohammed-shakir/dxf2gml/internal/core/crs"
	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
)

// Sentinel errors matched by the typed errors below through errors.Is.
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrSourceRead     = errors.New("source read error")
	ErrMixedReference = errors.New("mixed reference schemes")
	ErrAreaMismatch   = errors.New("area mismatch")
)

// ConfigurationError indicates a coordinate system code outside the allow-list.
type ConfigurationError struct {
	Code string
}

func (e *ConfigurationError) Error() string {
	allowed := make([]string, 0, len(crs.Codes()))
	for _, c := range crs.Codes() {
		allowed = append(allowed, c.String())
	}
	return fmt.Sprintf("invalid coordinate system code %q: must be one of %s",
		e.Code, strings.Join(allowed, ", "))
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// SourceReadError carries a failure of the geometry source unchanged.
type SourceReadError struct {
	Err error
}

func (e *SourceReadError) Error() string { return e.Err.Error() }

func (e *SourceReadError) Unwrap() error { return e.Err }

func (e *SourceReadError) Is(target error) bool { return target == ErrSourceRead }

// MixedReferenceError indicates a drawing that mixes cadastral and local references.
type MixedReferenceError struct {
	Expected  model.ReferenceScheme
	Reference string
}

func (e *MixedReferenceError) Error() string {
	if e.Expected == model.SchemeCadastral {
		return fmt.Sprintf("mixed references: expected cadastral references (%d characters), found %q",
			model.CadastralRefLen, e.Reference)
	}
	return fmt.Sprintf("mixed references: expected local references (not %d characters), found %q",
		model.CadastralRefLen, e.Reference)
}

func (e *MixedReferenceError) Is(target error) bool { return target == ErrMixedReference }

// AreaMismatchError is returned in strict mode when the declared area of a
// parcel disagrees with the area of its ring.
type AreaMismatchError struct {
	Reference string
	Given     float64
	Computed  float64
}

func (e *AreaMismatchError) Error() string {
	return fmt.Sprintf("area mismatch for %s: declared %.4f m^2, ring %.4f m^2",
		e.Reference, e.Given, e.Computed)
}

func (e *AreaMismatchError) Is(target error) bool { return target == ErrAreaMismatch }

// Kind names the failure class of err for metrics and exit codes.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrSourceRead):
		return "source_read"
	case errors.Is(err, ErrMixedReference):
		return "mixed_reference"
	case errors.Is(err, ErrAreaMismatch):
		return "area_mismatch"
	default:
		return "internal"
	}
}
