package staff

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

// StaffQueryHandler lists the directory. Reachable without a session
// so the login screen can offer the name picker.
func StaffQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members, err := ListStaff(r.Context(), db)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, members)
	}
}

type createStaffRequest struct {
	Name string `json:"name"`
	PIN  string `json:"pin"`
}

func CreateStaffCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in createStaffRequest
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		member, err := CreateStaff(r.Context(), db, auditSvc, operator, in.Name, in.PIN)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.StaffChanged()
		api.WriteJSON(w, http.StatusCreated, MemberView{ID: member.ID, Name: member.Name})
	}
}

type updatePINRequest struct {
	PIN string `json:"pin"`
}

func UpdateStaffPINCommandHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			api.WriteError(w, http.StatusBadRequest, "invalid staff id")
			return
		}
		var in updatePINRequest
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		if err := UpdateStaffPIN(r.Context(), db, auditSvc, operator, id, in.PIN); err != nil {
			api.WriteFault(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteStaffCommandHandler(db *sqlite.DB, auditSvc *audit.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			api.WriteError(w, http.StatusBadRequest, "invalid staff id")
			return
		}
		operator := permit.OperatorFromContext(r.Context())
		if err := DeleteStaff(r.Context(), db, auditSvc, operator, id); err != nil {
			api.WriteFault(w, err)
			return
		}
		hub.StaffChanged()
		w.WriteHeader(http.StatusNoContent)
	}
}
