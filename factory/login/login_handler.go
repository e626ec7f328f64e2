package login

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"stoneyard/infrastructure/api"
	"stoneyard/infrastructure/cache"
	sessioncookie "stoneyard/infrastructure/session"
	"stoneyard/infrastructure/sqlite"
	"stoneyard/models"
)

type loginRequest struct {
	Name string `json:"name"`
	PIN  string `json:"pin"`
}

type loginResponse struct {
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginHandler authenticates a staff member and issues a session
// cookie. Failed name and failed PIN answer identically.
func LoginHandler(db *sqlite.DB, sessions *cache.SessionCache, ttlHours int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in loginRequest
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		name := strings.TrimSpace(in.Name)
		pin := strings.TrimSpace(in.PIN)
		if name == "" || pin == "" {
			api.WriteError(w, http.StatusUnprocessableEntity, "name and pin are required")
			return
		}

		staff, err := AuthenticateStaff(r.Context(), db, name, pin)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				api.WriteError(w, http.StatusUnauthorized, "invalid name or pin")
				return
			}
			api.WriteFault(w, err)
			return
		}

		session := newSession(staff, ttlHours)
		if err := persistSession(r.Context(), db, session); err != nil {
			api.WriteFault(w, err)
			return
		}
		sessions.Add(session)

		http.SetCookie(w, sessioncookie.SessionCookie(session.ID, ttlHours*60*60))
		api.WriteJSON(w, http.StatusOK, loginResponse{
			Name:      staff.Name,
			ExpiresAt: session.ExpiresAt,
		})
	}
}

// LogoutHandler removes session state and clears the cookie.
func LogoutHandler(db *sqlite.DB, sessions *cache.SessionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessioncookie.CookieName)
		if err == nil && cookie.Value != "" {
			sessions.Delete(cookie.Value)
			_ = DeleteSessionByToken(r.Context(), db, cookie.Value)
		}
		http.SetCookie(w, sessioncookie.SessionCookie("", -1))
		w.WriteHeader(http.StatusNoContent)
	}
}

func newSession(staff models.StaffMember, ttlHours int) models.Session {
	return models.Session{
		ID:        newSessionToken(),
		StaffID:   staff.ID,
		Staff:     staff,
		ExpiresAt: sessioncookie.ExpiryIn(ttlHours),
	}
}
