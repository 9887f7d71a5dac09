package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "warning": slog.LevelWarn,
		"error": slog.LevelError, "": slog.LevelInfo, "bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentExport, Handler: slog.NewTextHandler(&buf, nil)})
	l.Info("export started", FieldExportID, "x1")
	l.WithComponent(ComponentReport).Warn("chart omitted")

	out := buf.String()
	if !strings.Contains(out, "component=export") || !strings.Contains(out, "export_id=x1") {
		t.Fatalf("missing fields in %q", out)
	}
	if !strings.Contains(out, "component=report") || strings.Count(out, "component=") != 2 {
		t.Fatalf("component not replaced: %q", out)
	}
}

func TestAccessLogLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentHTTP, Handler: slog.NewTextHandler(&buf, nil)})
	h := Middleware(l)(AccessLog(func(*http.Request) string { return "10.0.0.1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if FromContext(r.Context()) != l {
				t.Errorf("logger not in context")
			}
			w.WriteHeader(http.StatusNotFound)
		})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/expenses/x", nil))
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "status_code=404") {
		t.Fatalf("unexpected access log %q", out)
	}
}

func TestFromContextFallback(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("expected fallback logger")
	}
}
