package reporter

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nmt-project/nmt/internal/auth"
)

// Router builds the HTTP surface for this Reporter: an unauthenticated
// summary and healthcheck, and a detail report guarded by verifier
// (nil disables the guard, for local/dev use).
func (r *Reporter) Router(verifier *auth.Verifier) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", r.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/nmt/summary", r.handleSummary).Methods(http.MethodGet)

	detail := router.Path("/nmt/detail").Methods(http.MethodGet).Subrouter()
	if verifier != nil {
		detail.Use(verifier.Middleware)
	}
	detail.HandleFunc("", r.handleDetail)

	return router
}

func (r *Reporter) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	status := r.tracker.Status()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !status.OK {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	fmt.Fprintln(w, status.String())
}

func (r *Reporter) handleSummary(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, r.Summary())
}

func (r *Reporter) handleDetail(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, r.Detail())
}
