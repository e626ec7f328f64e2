package exports

import (
	"fmt"
	"net/http"
	"strings"

	"stoneyard/factory/faults"
	"stoneyard/infrastructure/api"
	"stoneyard/infrastructure/sqlite"
	"stoneyard/models"
)

// BlocksCSVHandler streams the inventory snapshot as CSV, optionally
// narrowed to one lifecycle status via ?status=.
func BlocksCSVHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := strings.TrimSpace(r.URL.Query().Get("status"))
		if status != "" {
			parsed, err := models.NewStatus(status)
			if err != nil {
				api.WriteFault(w, fmt.Errorf("%w: %v", faults.ErrInvalidArgument, err))
				return
			}
			status = string(parsed)
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=blocks.csv")
		if err := writeBlocksCSV(r.Context(), db, w, status); err != nil {
			http.Error(w, "failed to export csv", http.StatusInternalServerError)
			return
		}
	}
}

// PowerCutsCSVHandler streams the downtime log as CSV, one row per
// recorded outage with its derived duration.
func PowerCutsCSVHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=powercuts.csv")
		if err := writePowerCutsCSV(r.Context(), db, w); err != nil {
			http.Error(w, "failed to export downtime csv", http.StatusInternalServerError)
			return
		}
	}
}
