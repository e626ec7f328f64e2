package resin

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

func FlagCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		var in FlagInput
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		block, err := SetResinFlag(r.Context(), db, auditSvc, operator, id, in.Sent)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, block)
	}
}

func StartBatchCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in StartBatchInput
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		members, err := StartBatch(r.Context(), db, auditSvc, operator, in)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, members)
	}
}

func BatchPowerCutCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in BatchPowerCutInput
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		cuts, err := LogBatchPowerCut(r.Context(), db, auditSvc, operator, in)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusCreated, cuts)
	}
}

func UndoBatchCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator := permit.OperatorFromContext(r.Context())
		members, err := UndoBatch(r.Context(), db, auditSvc, operator)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, members)
	}
}

func FinishBatchCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in FinishBatchInput
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		members, err := FinishBatch(r.Context(), db, auditSvc, operator, in)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, members)
	}
}
