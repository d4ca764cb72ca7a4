// Package public embeds the admin's stylesheet and htmx glue script.
package public

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var files embed.FS

// Handler serves the embedded assets from the root of the stripped prefix.
// Asset names are not fingerprinted, so caches must revalidate.
func Handler() http.Handler {
	assets, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	fileServer := http.FileServer(http.FS(assets))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=0, must-revalidate")
		fileServer.ServeHTTP(w, r)
	})
}
