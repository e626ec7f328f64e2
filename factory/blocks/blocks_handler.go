package blocks

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stoneyard/infrastructure/api"
	"stoneyard/infrastructure/sqlite"
)

// BlocksQueryHandler lists the collection with optional status,
// company, material and search filters taken from the query string.
func BlocksQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{
			Status:   r.URL.Query().Get("status"),
			Company:  r.URL.Query().Get("company"),
			Material: r.URL.Query().Get("material"),
			Search:   r.URL.Query().Get("search"),
		}
		views, err := ListBlocks(r.Context(), db, filter)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, views)
	}
}

func BlockQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		detail, err := GetBlock(r.Context(), db, id)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, detail)
	}
}
