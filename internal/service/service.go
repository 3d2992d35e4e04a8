// Package service runs one conversion request through the result cache,
// the converter and the event publisher.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/mohammed-shakir/dxf2gml/internal/cache/keys"
	"github.com/mohammed-shakir/dxf2gml/internal/cache/memo"
	"github.com/mohammed-shakir/dxf2gml/internal/convert"
	"github.com/mohammed-shakir/dxf2gml/internal/core/crs"
	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
	obs "github.com/mohammed-shakir/dxf2gml/internal/core/observability"
	"github.com/mohammed-shakir/dxf2gml/internal/dxf"
	"github.com/mohammed-shakir/dxf2gml/internal/events"
	"github.com/mohammed-shakir/dxf2gml/internal/logger"
)

// Request is one drawing to convert. Name is the drawing name without
// extension; Source labels the caller in metrics.
type Request struct {
	Name   string
	Data   []byte
	Code   string
	Source string
}

// Outcome is what callers render. It is also the cached payload.
type Outcome struct {
	Name        string             `json:"name"`
	Code        crs.Code           `json:"code"`
	Namespace   string             `json:"namespace"`
	Scheme      string             `json:"scheme"`
	Report      []string           `json:"info"`
	Diagnostics []model.Diagnostic `json:"warnings,omitempty"`
	Parcels     int                `json:"parcels"`
	Document    []byte             `json:"document"`
	Cached      bool               `json:"-"`
}

// Publisher is the part of events.Publisher the service uses.
type Publisher interface {
	Publish(ctx context.Context, ev events.ParcelsConverted) error
}

type Deps struct {
	Cache     *memo.Cache
	Publisher Publisher
	Events    events.Builder
	Options   convert.Options
	Logger    *slog.Logger
}

type Service struct {
	cache  *memo.Cache
	pub    Publisher
	events events.Builder
	opts   convert.Options
	log    *slog.Logger
}

func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Options == (convert.Options{}) {
		d.Options = convert.NewOptions()
	}
	return &Service{
		cache:  d.Cache,
		pub:    d.Publisher,
		events: d.Events,
		opts:   d.Options,
		log:    d.Logger,
	}
}

// Options returns the conversion options applied to every request.
func (s *Service) Options() convert.Options { return s.opts }

// Convert validates the code before touching the drawing, serves cached
// results when it can, and otherwise parses and converts. Failures are never
// cached. Cache and event errors are logged only.
func (s *Service) Convert(ctx context.Context, req Request) (out Outcome, err error) {
	start := time.Now()
	source := req.Source
	if source == "" {
		source = "api"
	}
	ctx = logger.WithFile(ctx, req.Name)
	defer func() {
		label := convert.Kind(err)
		if err == nil && out.Cached {
			label = "cache_hit"
		}
		obs.ObserveConversion(source, label, time.Since(start).Seconds())
	}()

	code, err := convert.ParseCode(req.Code)
	if err != nil {
		return Outcome{}, err
	}

	key := keys.Conversion(code.String(), req.Data, s.opts.Fingerprint())
	if cached, ok := s.lookup(ctx, key); ok {
		cached.Name = req.Name
		return cached, nil
	}

	src := convert.SourceFunc(func() ([]model.ParcelFeature, error) {
		d, err := dxf.ParseBytes(req.Data)
		if err != nil {
			return nil, err
		}
		return d.Features()
	})
	res, err := convert.Convert(src, code, s.opts.Apply())
	if err != nil {
		s.log.InfoContext(ctx, "conversion failed", "code", code.String(), "kind", convert.Kind(err), "err", err)
		return Outcome{}, err
	}

	out = Outcome{
		Name:        req.Name,
		Code:        code,
		Namespace:   res.Namespace,
		Scheme:      res.Scheme.String(),
		Report:      res.Report,
		Diagnostics: res.Diagnostics,
		Parcels:     len(res.Parcels),
		Document:    res.Document,
	}
	record(res)
	s.store(ctx, key, out)
	s.publish(ctx, req.Name, code, res)

	s.log.InfoContext(ctx, "conversion done",
		"code", code.String(), "namespace", res.Namespace,
		"parcels", len(res.Parcels), "skipped", res.Skipped, "diagnostics", len(res.Diagnostics))
	return out, nil
}

func (s *Service) lookup(ctx context.Context, key string) (Outcome, bool) {
	if s.cache == nil {
		return Outcome{}, false
	}
	b, ok := s.cache.Get(ctx, key)
	if !ok {
		return Outcome{}, false
	}
	var out Outcome
	if err := json.Unmarshal(b, &out); err != nil {
		s.log.WarnContext(ctx, "dropping unreadable cache entry", "key", key, "err", err)
		s.cache.Del(ctx, key)
		return Outcome{}, false
	}
	out.Cached = true
	return out, true
}

func (s *Service) store(ctx context.Context, key string, out Outcome) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(out)
	if err != nil {
		s.log.WarnContext(ctx, "cache encode failed", "err", err)
		return
	}
	s.cache.Set(ctx, key, b)
}

func (s *Service) publish(ctx context.Context, name string, code crs.Code, res model.ConversionResult) {
	if s.pub == nil {
		return
	}
	ev, ok, err := s.events.Build(name, code, res)
	if err != nil {
		s.log.WarnContext(ctx, "event build failed", "err", err)
		return
	}
	if !ok {
		return
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.WarnContext(ctx, "event publish failed", "id", ev.ID, "err", err)
	}
}

func record(res model.ConversionResult) {
	obs.AddParcels(res.Scheme.String(), len(res.Parcels))
	for _, line := range res.Report {
		switch {
		case strings.HasSuffix(line, convert.WarnNonSolid):
			obs.IncWarning("non_solid")
		case strings.HasSuffix(line, convert.WarnUnclosed):
			obs.IncWarning("unclosed")
		}
	}
	for _, d := range res.Diagnostics {
		obs.IncWarning(string(d.Kind))
	}
}
