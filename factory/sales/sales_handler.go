package sales

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

func AreaSaleCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := blockIDParam(r)
		if !ok {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		var in AreaSaleInput
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		result, err := SellByArea(r.Context(), db, auditSvc, operator, id, in)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, result)
	}
}

func WeightSaleCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := blockIDParam(r)
		if !ok {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		var in WeightSaleInput
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		result, err := SellByWeight(r.Context(), db, auditSvc, operator, id, in)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, result)
	}
}

func CorrectionCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := blockIDParam(r)
		if !ok {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		var in CorrectionInput
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		block, err := CorrectSale(r.Context(), db, auditSvc, operator, id, in)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, block)
	}
}
