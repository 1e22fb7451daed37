package model

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRoutePayload(t *testing.T) {
	fiscalia := relay("/fiscalia-nombres", "/x", "nombres", "apepaterno", "apematerno")

	tests := []struct {
		name  string
		route Route
		query url.Values
		token string
		want  map[string]any
	}{
		{
			name:  "sunat forwards data and token",
			route: relay("/sunat", "/v1.7/empresa/sunat", "data"),
			query: url.Values{"data": {"20123456789"}},
			token: "secret",
			want:  map[string]any{"data": "20123456789", "token": "secret"},
		},
		{
			name:  "missing param omitted",
			route: relay("/sueldos", "/x", "dni"),
			query: url.Values{},
			token: "secret",
			want:  map[string]any{"token": "secret"},
		},
		{
			name:  "repeated key forwards first value",
			route: relay("/sueldos", "/x", "dni"),
			query: url.Values{"dni": {"1", "2"}},
			token: "secret",
			want:  map[string]any{"dni": "1", "token": "secret"},
		},
		{
			name:  "empty param forwarded as empty string",
			route: relay("/sueldos", "/x", "dni"),
			query: url.Values{"dni": {""}},
			token: "secret",
			want:  map[string]any{"dni": "", "token": "secret"},
		},
		{
			name:  "first value wins",
			route: relay("/sueldos", "/x", "dni"),
			query: url.Values{"dni": {"1", "2"}},
			token: "secret",
			want:  map[string]any{"dni": "1", "token": "secret"},
		},
		{
			name:  "unknown query keys dropped",
			route: relay("/sueldos", "/x", "dni"),
			query: url.Values{"dni": {"1"}, "token": {"spoofed"}, "extra": {"x"}},
			token: "secret",
			want:  map[string]any{"dni": "1", "token": "secret"},
		},
		{
			name:  "partial multi-param",
			route: fiscalia,
			query: url.Values{"nombres": {"ANA"}, "apematerno": {"PEREZ"}},
			token: "secret",
			want:  map[string]any{"nombres": "ANA", "apematerno": "PEREZ", "token": "secret"},
		},
		{
			name:  "source defaults when absent",
			route: ReniecRoute,
			query: url.Values{"dni": {"12345678"}},
			token: "secret",
			want:  map[string]any{"dni": "12345678", "source": "database", "token": "secret"},
		},
		{
			name:  "source defaults when empty",
			route: ReniecRoute,
			query: url.Values{"dni": {"12345678"}, "source": {""}},
			token: "secret",
			want:  map[string]any{"dni": "12345678", "source": "database", "token": "secret"},
		},
		{
			name:  "source explicit",
			route: ReniecRoute,
			query: url.Values{"dni": {"12345678"}, "source": {"live"}},
			token: "secret",
			want:  map[string]any{"dni": "12345678", "source": "live", "token": "secret"},
		},
		{
			name:  "empty token omitted",
			route: relay("/sueldos", "/x", "dni"),
			query: url.Values{"dni": {"1"}},
			want:  map[string]any{"dni": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.route.Payload(tt.query, tt.token)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Payload() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRouteTable(t *testing.T) {
	seen := make(map[string]bool)
	for _, r := range AllRoutes() {
		if !strings.HasPrefix(r.Path, "/") {
			t.Errorf("route %q: path must start with '/'", r.Path)
		}
		if !strings.HasPrefix(r.Upstream, "/v1.7/") {
			t.Errorf("route %q: upstream %q outside /v1.7/", r.Path, r.Upstream)
		}
		if len(r.Params) == 0 {
			t.Errorf("route %q: no params", r.Path)
		}
		if seen[r.Path] {
			t.Errorf("duplicate route %q", r.Path)
		}
		seen[r.Path] = true
	}

	if len(RelayRoutes) != 21 {
		t.Errorf("len(RelayRoutes) = %d, want 21", len(RelayRoutes))
	}
	for _, r := range RelayRoutes {
		if r.Template != "" {
			t.Errorf("relay route %q has template %q", r.Path, r.Template)
		}
	}
	if ReniecRoute.Template != "reniec" {
		t.Errorf("ReniecRoute.Template = %q, want %q", ReniecRoute.Template, "reniec")
	}
}

func TestReservedPaths(t *testing.T) {
	paths := ReservedPaths()
	want := []string{HealthPath, StatusPath, "/reniec", "/sunat", "/fiscalia-nombres"}
	for _, w := range want {
		found := false
		for _, p := range paths {
			if p == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("ReservedPaths() missing %q", w)
		}
	}
}
