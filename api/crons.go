package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (a *API) listCrons(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.sched.Entries())
}

func (a *API) setCronEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.sched.SetEnabled(chi.URLParam(r, "name"), enabled); err != nil {
			a.writeErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
