package cutting

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stoneyard/factory/permit"
	"stoneyard/infrastructure/api"
	"stoneyard/infrastructure/audit"
	"stoneyard/infrastructure/notify"
	"stoneyard/infrastructure/sqlite"
)

func blockIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func StartCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := blockIDParam(r)
		if !ok {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		var in StartInput
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		block, err := StartCutting(r.Context(), db, auditSvc, operator, id, in)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, block)
	}
}

func PowerCutCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := blockIDParam(r)
		if !ok {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		var in PowerCutInput
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		cut, err := LogPowerCut(r.Context(), db, auditSvc, operator, id, in)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusCreated, cut)
	}
}

func UndoCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := blockIDParam(r)
		if !ok {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		block, err := UndoCutting(r.Context(), db, auditSvc, operator, id)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, block)
	}
}

func FinishCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := blockIDParam(r)
		if !ok {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		var in FinishInput
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		block, err := FinishCutting(r.Context(), db, auditSvc, operator, id, in)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, block)
	}
}
