// Package batch converts a single drawing or every drawing of a directory,
// writing each document next to its source.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mohammed-shakir/dxf2gml/internal/convert"
	"github.com/mohammed-shakir/dxf2gml/internal/core/crs"
	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
	"github.com/mohammed-shakir/dxf2gml/internal/core/ogc"
	"github.com/mohammed-shakir/dxf2gml/internal/dxf"
)

const (
	inputExt   = ".dxf"
	outputExt  = ".gml"
	outlineExt = ".outline.dxf"
	geojsonExt = ".geojson"
)

type Options struct {
	Code    crs.Code
	Workers int
	// Outline also writes <name>.outline.dxf with the accepted parcels.
	Outline bool
	// GeoJSON also writes <name>.geojson with the parcels in WGS84.
	GeoJSON  bool
	Convert  []convert.Option
	Logger   *slog.Logger
	Progress func(done, total int)
}

// Result is the outcome for one drawing. Err is nil on success.
type Result struct {
	Path        string
	Output      string
	Outline     string
	GeoJSON     string
	Report      []string
	Diagnostics []model.Diagnostic
	Parcels     int
	Duration    time.Duration
	Err         error
}

type Summary struct {
	Results []Result
}

// OK reports whether every drawing converted.
func (s Summary) OK() bool {
	for _, r := range s.Results {
		if r.Err != nil {
			return false
		}
	}
	return true
}

func (s Summary) Failed() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Inputs resolves path to the drawings to convert: the file itself, or every
// *.dxf directly inside a directory in name order.
func Inputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("list input dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if e.IsDir() || !strings.HasSuffix(name, inputExt) || strings.HasSuffix(name, outlineExt) {
			continue
		}
		out = append(out, filepath.Join(path, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// OutputPath is the document written for the drawing at path.
func OutputPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + outputExt
}

func OutlinePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + outlineExt
}

func GeoJSONPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + geojsonExt
}

// Run converts every input independently. A failing drawing is recorded in
// its Result and never stops the others. The returned error covers only
// problems with the request itself.
func Run(ctx context.Context, path string, opts Options) (Summary, error) {
	if !crs.Supported(opts.Code) {
		return Summary{}, &convert.ConfigurationError{Code: string(opts.Code)}
	}
	inputs, err := Inputs(path)
	if err != nil {
		return Summary{}, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, len(inputs))
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Path: in, Err: err}
				return nil
			}
			results[i] = ConvertFile(in, opts)
			r := results[i]
			if r.Err != nil {
				log.Warn("conversion failed", "file", in, "err", r.Err)
			} else {
				log.Info("conversion done", "file", in, "output", r.Output,
					"parcels", r.Parcels, "duration", r.Duration.String())
			}
			if opts.Progress != nil {
				opts.Progress(int(done.Add(1)), len(inputs))
			}
			return nil
		})
	}
	_ = g.Wait()
	return Summary{Results: results}, ctx.Err()
}

// ConvertFile converts one drawing and writes its outputs.
func ConvertFile(path string, opts Options) (res Result) {
	start := time.Now()
	res.Path = path
	defer func() { res.Duration = time.Since(start) }()

	var features []model.ParcelFeature
	src := convert.SourceFunc(func() ([]model.ParcelFeature, error) {
		d, err := dxf.Open(path)
		if err != nil {
			return nil, err
		}
		features, err = d.Features()
		return features, err
	})
	out, err := convert.Convert(src, opts.Code, opts.Convert...)
	if err != nil {
		res.Err = err
		return res
	}
	res.Report = out.Report
	res.Diagnostics = out.Diagnostics
	res.Parcels = len(out.Parcels)

	res.Output = OutputPath(path)
	if err := os.WriteFile(res.Output, out.Document, 0o644); err != nil {
		res.Err = fmt.Errorf("write %s: %w", res.Output, err)
		res.Output = ""
		return res
	}
	if opts.Outline {
		res.Outline = OutlinePath(path)
		if _, err := dxf.WriteOutline(res.Outline, features); err != nil {
			res.Err = err
			res.Outline = ""
			return res
		}
	}
	if opts.GeoJSON {
		res.GeoJSON = GeoJSONPath(path)
		if err := writeGeoJSON(res.GeoJSON, opts.Code, out.Parcels); err != nil {
			res.Err = err
			res.GeoJSON = ""
		}
	}
	return res
}

func writeGeoJSON(path string, code crs.Code, parcels []model.EncodedParcel) error {
	proj, err := code.Projection()
	if err != nil {
		return err
	}
	b, err := ogc.GeoJSON(parcels, proj).MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
