// Package site serves the embedded scoreboard and referee pages.
package site

import (
	"context"
	"net/http"
)

// Prefix is the path the pages are served under.
const Prefix = "/scoreboard/"

// Register attaches the embedded pages to mux.
//
//	GET /scoreboard/             -> live scoreboard (index.html)
//	GET /scoreboard/referee.html -> referee keypad
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET "+Prefix, http.StripPrefix(Prefix, http.FileServer(FS())))
}
