package main

import (
	"flag"
	"net/http"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"resephub/pkg/logging"
)

// mirror-server serves local copies of the upstream endpoints so the site
// can be developed without network:
//
//	RESEPHUB_UPSTREAM_CATEGORIES_URL=http://localhost:9000/resep/kategori.json
//	RESEPHUB_UPSTREAM_RECIPES_URL=http://localhost:9000/resep/data.json
func main() {
	addr := flag.String("addr", ":9000", "listen address")
	dir := flag.String("dir", "data", "directory holding kategori.json and data.json")
	flag.Parse()

	log := logging.With("mirror-server")

	mux := http.NewServeMux()
	for _, name := range []string{"kategori.json", "data.json"} {
		mux.HandleFunc("/resep/"+name, serveJSON(filepath.Join(*dir, name)))
	}

	log.Info().Str("addr", *addr).Str("dir", *dir).Msg("mirror-server listening")
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}

func serveJSON(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(path)
		if err != nil {
			http.Error(w, "cannot read "+filepath.Base(path)+": "+err.Error(), http.StatusInternalServerError)
			return
		}
		// validate JSON so a bad file doesn't silently break the loader
		if !json.Valid(b) {
			http.Error(w, filepath.Base(path)+" is not valid JSON", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}
