package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates static
var FS embed.FS

// Templates parses the page and its partials from the embedded tree.
func Templates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(FS, "templates/*.html", "templates/partials/*.html")
}

func Static() (fs.FS, error) {
	return fs.Sub(FS, "static")
}
