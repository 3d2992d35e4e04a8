package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammed-shakir/dxf2gml/internal/core/config"
	"github.com/mohammed-shakir/dxf2gml/internal/core/health"
	"github.com/mohammed-shakir/dxf2gml/internal/core/router"
	"github.com/mohammed-shakir/dxf2gml/internal/service"
)

type nopConverter struct{}

func (nopConverter) Convert(context.Context, service.Request) (service.Outcome, error) {
	return service.Outcome{}, nil
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T, d Deps) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if d.Converter == nil {
		d.Converter = nopConverter{}
	}
	ts := httptest.NewServer(NewHandler(config.Defaults(), logger, d))
	t.Cleanup(ts.Close)
	return ts
}

func noRedirect(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

func TestNewHandler_Routes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	ts := newTestServer(t, Deps{Metrics: metrics})
	client := &http.Client{CheckRedirect: noRedirect}

	cases := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusMovedPermanently, ""},
		{"/healthz", http.StatusOK, "ok"},
		{"/readyz", http.StatusOK, `"status":"ready"`},
		{"/metrics", http.StatusOK, "# metrics"},
		{router.RouteGML, http.StatusBadRequest, "Invalid parameters"},
		{router.RouteJSON, http.StatusBadRequest, "Invalid parameters"},
	}
	for _, tc := range cases {
		resp, err := client.Get(ts.URL + tc.path)
		if err != nil {
			t.Fatalf("GET %s: %v", tc.path, err)
		}
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode != tc.status {
			t.Fatalf("GET %s: status=%d want %d", tc.path, resp.StatusCode, tc.status)
		}
		if tc.body != "" && !strings.Contains(string(b), tc.body) {
			t.Fatalf("GET %s: body %q missing %q", tc.path, b, tc.body)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Fatalf("GET %s: missing X-Request-ID", tc.path)
		}
	}
}

func TestNewHandler_NoMetricsWhenDisabled(t *testing.T) {
	ts := newTestServer(t, Deps{})
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d want 404", resp.StatusCode)
	}
}

func TestNewHandler_ReadinessFailure(t *testing.T) {
	ts := newTestServer(t, Deps{Ready: map[string]health.Pinger{
		"redis": pingFunc(func(context.Context) error { return errors.New("down") }),
	}})
	resp, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503", resp.StatusCode)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := config.Defaults()
	cfg.Addr = "127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), Deps{Converter: nopConverter{}})
	}()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}
