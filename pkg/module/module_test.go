package module_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parlorgames/byline/pkg/module"
)

func echoPath() (*http.ServeMux, *string) {
	var seen string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions", func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})
	return mux, &seen
}

func TestModulePrefixValidation(t *testing.T) {
	tests := []struct {
		name      string
		prefix    string
		wantPanic bool
	}{
		{name: "valid single level", prefix: "/api", wantPanic: false},
		{name: "empty prefix", prefix: "", wantPanic: true},
		{name: "missing leading slash", prefix: "api", wantPanic: true},
		{name: "multi-level prefix", prefix: "/api/v1", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				recovered := recover()
				if tt.wantPanic && recovered == nil {
					t.Error("expected panic, got none")
				}
				if !tt.wantPanic && recovered != nil {
					t.Errorf("unexpected panic: %v", recovered)
				}
			}()

			module.New(tt.prefix, http.NewServeMux())
		})
	}
}

func TestModuleStripsPrefix(t *testing.T) {
	mux, seen := echoPath()
	m := module.New("/api", mux)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	m.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if *seen != "/sessions" {
		t.Errorf("inner path = %q, want %q", *seen, "/sessions")
	}
}

func TestModuleMiddlewareApplied(t *testing.T) {
	mux, _ := echoPath()
	m := module.New("/api", mux)

	var order []string
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "first")
			next.ServeHTTP(w, r)
		})
	})
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "second")
			next.ServeHTTP(w, r)
		})
	})

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("middleware order = %v, want [first second]", order)
	}
}

func TestRouterDispatch(t *testing.T) {
	mux, _ := echoPath()
	m := module.New("/api", mux)

	router := module.NewRouter()
	router.Mount(m)
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "module route", path: "/api/sessions", wantStatus: http.StatusOK},
		{name: "module route with trailing slash", path: "/api/sessions/", wantStatus: http.StatusOK},
		{name: "native fallback", path: "/healthz", wantStatus: http.StatusNoContent},
		{name: "unmatched path", path: "/nowhere", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
