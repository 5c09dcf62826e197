// Package scalar serves the Scalar API reference UI against the
// service's OpenAPI document.
package scalar

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/parlorgames/byline/pkg/module"
)

//go:embed index.html
var indexHTML string

// NewModule creates a module that serves the Scalar API reference UI at
// basePath, rendered against the OpenAPI document served at specURL.
func NewModule(basePath, specURL string) *module.Module {
	return module.New(basePath, buildRouter(specURL))
}

func buildRouter(specURL string) http.Handler {
	tmpl := template.Must(template.New("index").Parse(indexHTML))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		tmpl.Execute(w, map[string]string{"SpecURL": specURL})
	})

	return mux
}
