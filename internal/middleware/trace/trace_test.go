package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddleware(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromRequest(r)
	}))

	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{"generated", "", false},
		{"reused", "abc-123", true},
		{"rejects junk", "bad id\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				r.Header.Set(HeaderRequestID, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			if seen == "" || rec.Header().Get(HeaderRequestID) != seen {
				t.Fatalf("context id %q, header %q", seen, rec.Header().Get(HeaderRequestID))
			}
			if tt.reuse && seen != tt.incoming {
				t.Errorf("id = %q, want %q", seen, tt.incoming)
			}
			if !tt.reuse && !strings.HasPrefix(seen, "req_") {
				t.Errorf("id = %q, want generated", seen)
			}
		})
	}
}
