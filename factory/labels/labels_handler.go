package labels

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"stoneyard/infrastructure/api"
	"stoneyard/infrastructure/sqlite"
)

func blockIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// BlockLabelPDFHandler renders the printable job card for one block.
func BlockLabelPDFHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := blockIDParam(r)
		if !ok {
			api.WriteError(w, http.StatusBadRequest, "invalid block id")
			return
		}
		labels, err := loadLabelData(r.Context(), db, []int64{id})
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		pdfBytes, err := renderBlockLabelPDF(labels[0], time.Now())
		if err != nil {
			http.Error(w, "failed to build label pdf", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=block-%d-label.pdf", id))
		_, _ = w.Write(pdfBytes)
	}
}

// BatchLabelsPDFHandler renders one job card per requested block in a
// single document.
func BatchLabelsPDFHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			IDs []int64 `json:"ids"`
		}
		if err := api.Decode(r, &in); err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		labels, err := loadLabelData(r.Context(), db, in.IDs)
		if err != nil {
			api.WriteFault(w, err)
			return
		}
		pdfBytes, err := renderBlockLabelsPDF(labels, time.Now())
		if err != nil {
			http.Error(w, "failed to build labels pdf", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "inline; filename=block-labels.pdf")
		_, _ = w.Write(pdfBytes)
	}
}
