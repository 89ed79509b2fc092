package api

import "net/http"

func (a *API) metrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.m.GetMetrics())
}

func (a *API) reap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.m.Reap(r.Context()))
}
