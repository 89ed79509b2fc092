package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/lanes/id"
)

func (a *API) registerWorker(w http.ResponseWriter, r *http.Request) {
	var req RegisterWorkerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	workerID, err := a.m.RegisterWorker(req.Name, req.Types, req.Concurrency)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterWorkerResponse{ID: workerID})
}

func (a *API) listWorkers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.m.ListWorkers())
}

func (a *API) deactivateWorker(w http.ResponseWriter, r *http.Request) {
	workerID, err := id.ParseWorkerID(chi.URLParam(r, "workerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid worker ID: "+err.Error())
		return
	}

	if err := a.m.DeactivateWorker(workerID); err != nil {
		a.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
