package stockyard

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

func CompleteCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		block, err := CompleteBlock(r.Context(), db, auditSvc, operator, id)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, block)
	}
}

func TransferCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		var in TransferInput
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		block, err := TransferToYard(r.Context(), db, auditSvc, operator, id, in)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, block)
	}
}
