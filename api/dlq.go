package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/dlq"
	"github.com/xraph/lanes/id"
)

func (a *API) listDeadLetters(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := page(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit and offset must be non-negative integers")
		return
	}

	entries := a.m.ListDeadLetters(dlq.ListOpts{
		Limit:  limit,
		Offset: offset,
		Type:   r.URL.Query().Get("type"),
	})
	writeJSON(w, http.StatusOK, entries)
}

func (a *API) retryDeadJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job ID: "+err.Error())
		return
	}

	if !a.m.RetryDeadJob(r.Context(), jobID) {
		j, err := a.m.GetJobStatus(jobID)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		a.writeErr(w, r, fmt.Errorf("%w: %s is %s", lanes.ErrNotDead, jobID, j.Status))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
