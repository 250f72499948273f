package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Assets is the static asset manifest served at the root.
var Assets = []string{"styles.css", "app_final.js", "manifest.json"}

// registerStatic serves the manifest from the embedded files, or through
// assets when a remote origin is configured.
func registerStatic(r gin.IRoutes, assets *AssetProxy) {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	for _, name := range Assets {
		if assets == nil {
			r.StaticFileFS("/"+name, name, http.FS(sub))
			continue
		}
		h := assets.handler(name, http.FS(sub))
		r.GET("/"+name, h)
		r.HEAD("/"+name, h)
	}
}
