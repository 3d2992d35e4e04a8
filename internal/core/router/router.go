// Package router holds the conversion endpoints.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/mohammed-shakir/dxf2gml/internal/core/model"
	"github.com/mohammed-shakir/dxf2gml/internal/core/observability"
	"github.com/mohammed-shakir/dxf2gml/internal/service"
)

const (
	RouteGML  = "/catastro/gml/"
	RouteJSON = "/catastro/json/"

	// form fields
	fieldDXF  = "dxf"
	fieldCode = "code"
)

// ErrInvalidParameters is returned for wrong methods and missing uploads.
var ErrInvalidParameters = errors.New("invalid parameters")

// invalidParametersText is the body answered for ErrInvalidParameters.
const invalidParametersText = "Invalid parameters"

// Converter runs one conversion.
type Converter interface {
	Convert(ctx context.Context, req service.Request) (service.Outcome, error)
}

type Limits struct {
	MaxUploadBytes int64
	DefaultCode    string
}

// Upload is a parsed conversion form.
type Upload struct {
	Name string
	Data []byte
	Code string
}

// HandleGML answers with the document as a text/plain attachment.
func HandleGML(logger *slog.Logger, lim Limits, conv Converter) http.HandlerFunc {
	return handle(logger, lim, conv, RouteGML, func(w http.ResponseWriter, out service.Outcome) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", attachment(out.Name+".gml"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out.Document)
	})
}

func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

// JSONResponse is the body of the json endpoint.
type JSONResponse struct {
	Info     []string           `json:"info"`
	GML      string             `json:"gml"`
	Warnings []model.Diagnostic `json:"warnings,omitempty"`
}

// HandleJSON answers with the report lines and the document in one object.
func HandleJSON(logger *slog.Logger, lim Limits, conv Converter) http.HandlerFunc {
	return handle(logger, lim, conv, RouteJSON, func(w http.ResponseWriter, out service.Outcome) {
		info := out.Report
		if info == nil {
			info = []string{}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(JSONResponse{Info: info, GML: string(out.Document), Warnings: out.Diagnostics})
	})
}

// RedirectRoot sends the landing page to the gml endpoint.
func RedirectRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteGML, http.StatusMovedPermanently)
	}
}

func handle(logger *slog.Logger, lim Limits, conv Converter, route string, write func(http.ResponseWriter, service.Outcome)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
		}()

		up, err := ParseUpload(sw, r, lim)
		if err != nil {
			logger.InfoContext(r.Context(), "rejected upload", "route", route, "err", err)
			msg := err.Error()
			if errors.Is(err, ErrInvalidParameters) {
				msg = invalidParametersText
			}
			http.Error(sw, msg, http.StatusBadRequest)
			return
		}

		out, err := conv.Convert(r.Context(), service.Request{
			Name:   up.Name,
			Data:   up.Data,
			Code:   up.Code,
			Source: "http",
		})
		if err != nil {
			http.Error(sw, err.Error(), http.StatusBadRequest)
			return
		}
		write(sw, out)
	}
}

// ParseUpload reads the multipart form of a conversion request. Only POST
// with a dxf file part is accepted.
func ParseUpload(w http.ResponseWriter, r *http.Request, lim Limits) (Upload, error) {
	if r.Method != http.MethodPost {
		return Upload{}, ErrInvalidParameters
	}
	if lim.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, lim.MaxUploadBytes)
	}
	f, hdr, err := r.FormFile(fieldDXF)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return Upload{}, fmt.Errorf("upload exceeds %d bytes", tooBig.Limit)
		}
		return Upload{}, ErrInvalidParameters
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, fmt.Errorf("read upload: %w", err)
	}

	code := strings.TrimSpace(r.PostFormValue(fieldCode))
	if code == "" {
		code = lim.DefaultCode
	}
	base := filepath.Base(strings.ReplaceAll(hdr.Filename, `\`, "/"))
	return Upload{
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
		Data: data,
		Code: code,
	}, nil
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
