package dashboard

import (
	_ "embed"
	"net/http"
)

//go:embed index.html
var indexHTML []byte

// ServeIndex serves the embedded HTML dashboard.
func (d *Dashboard) ServeIndex(w http.ResponseWriter, r *http.Request) {
	// Touch the session so the cookie is set before the first API call.
	d.session(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}
