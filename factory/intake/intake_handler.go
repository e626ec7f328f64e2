package intake

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

type purchaseRequest struct {
	Blocks []PurchaseInput `json:"blocks"`
}

func PurchaseCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in purchaseRequest
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		blocks, err := PurchaseBlocks(r.Context(), db, auditSvc, operator, in.Blocks)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusCreated, blocks)
	}
}

type arrivalIntakeRequest struct {
	Blocks []ArrivalInput `json:"blocks"`
}

func ArrivalIntakeCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in arrivalIntakeRequest
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		blocks, err := ArriveBlocks(r.Context(), db, auditSvc, operator, in.Blocks)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusCreated, blocks)
	}
}

func blockIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func ArriveCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := blockIDParam(r)
		if !ok {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		var in ArrivalDims
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		block, err := RecordArrival(r.Context(), db, auditSvc, operator, id, in)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, block)
	}
}

type renameRequest struct {
	JobNo string `json:"jobNo"`
}

func RenameCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := blockIDParam(r)
		if !ok {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		var in renameRequest
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		block, err := RenameBlock(r.Context(), db, auditSvc, operator, id, in.JobNo)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, block)
	}
}

type mspRequest struct {
	MSP string `json:"msp"`
}

func MSPCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := blockIDParam(r)
		if !ok {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		var in mspRequest
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		block, err := SetMSP(r.Context(), db, auditSvc, operator, id, in.MSP)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.BlocksChanged()
		api.WriteJSON(w, http.StatusOK, block)
	}
}

type deleteRequest struct {
	IDs []int64 `json:"ids"`
}

func DeleteCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in deleteRequest
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		deleted, failed, err := DeleteBlocks(r.Context(), db, auditSvc, operator, in.IDs)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		if deleted > 0 {
			hub.BlocksChanged()
		}
		api.WriteJSON(w, http.StatusOK, DeleteResult{Deleted: deleted, Failed: failed})
	}
}
