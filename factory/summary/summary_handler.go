package summary

import (
	"net/http"

	"stoneyard/infrastructure/api"
	"stoneyard/infrastructure/sqlite"
)

func SummaryQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := Filter{
			Company:  r.URL.Query().Get("company"),
			Material: r.URL.Query().Get("material"),
		}
		s, err := BuildSummary(r.Context(), db, filter)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, s)
	}
}
