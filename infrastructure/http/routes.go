package http

import (
	"github.com/go-chi/chi/v5"

	"stoneyard/factory/blocks"
	"stoneyard/factory/cutting"
	"stoneyard/factory/exports"
	"stoneyard/factory/intake"
	"stoneyard/factory/labels"
	"stoneyard/factory/login"
	"stoneyard/factory/resin"
	"stoneyard/factory/sales"
	"stoneyard/factory/staff"
	"stoneyard/factory/stockyard"
	"stoneyard/factory/summary"
)

// RegisterAPIRoutes wires every endpoint under /api behind the operator
// middleware.
func (s *Server) RegisterAPIRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.WithOperatorMiddleware)

		r.Post("/login", login.LoginHandler(s.DB, s.SessionCache, s.SessionTTL))
		r.Post("/logout", login.LogoutHandler(s.DB, s.SessionCache))

		r.Get("/events", s.Hub.Handler())
		r.Get("/summary", summary.SummaryQueryHandler(s.DB))

		s.registerBlockRoutes(r)
		s.registerResinRoutes(r)
		s.registerStaffRoutes(r)
		s.registerExportRoutes(r)
	})
}

func (s *Server) registerBlockRoutes(r chi.Router) {
	r.Get("/blocks", blocks.BlocksQueryHandler(s.DB))
	r.Get("/blocks/{id}", blocks.BlockQueryHandler(s.DB))
	r.Get("/blocks/{id}/label.pdf", labels.BlockLabelPDFHandler(s.DB))
	r.Post("/labels.pdf", labels.BatchLabelsPDFHandler(s.DB))

	r.Post("/blocks/purchase", intake.PurchaseCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/blocks/arrival", intake.ArrivalIntakeCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/blocks/delete", intake.DeleteCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/blocks/{id}/arrive", intake.ArriveCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/blocks/{id}/rename", intake.RenameCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/blocks/{id}/msp", intake.MSPCommandHandler(s.DB, s.Audit, s.Hub))

	r.Post("/blocks/{id}/cutting/start", cutting.StartCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/blocks/{id}/cutting/powercut", cutting.PowerCutCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/blocks/{id}/cutting/undo", cutting.UndoCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/blocks/{id}/cutting/finish", cutting.FinishCommandHandler(s.DB, s.Audit, s.Hub))

	r.Post("/blocks/{id}/resin/flag", resin.FlagCommandHandler(s.DB, s.Audit, s.Hub))

	r.Post("/blocks/{id}/complete", stockyard.CompleteCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/blocks/{id}/stockyard", stockyard.TransferCommandHandler(s.DB, s.Audit, s.Hub))

	r.Post("/blocks/{id}/sell/area", sales.AreaSaleCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/blocks/{id}/sell/weight", sales.WeightSaleCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/blocks/{id}/sale", sales.CorrectionCommandHandler(s.DB, s.Audit, s.Hub))
}

func (s *Server) registerResinRoutes(r chi.Router) {
	r.Post("/resin/start", resin.StartBatchCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/resin/powercut", resin.BatchPowerCutCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/resin/undo", resin.UndoBatchCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/resin/finish", resin.FinishBatchCommandHandler(s.DB, s.Audit, s.Hub))
}

func (s *Server) registerStaffRoutes(r chi.Router) {
	r.Get("/staff", staff.StaffQueryHandler(s.DB))
	r.Post("/staff", staff.CreateStaffCommandHandler(s.DB, s.Audit, s.Hub))
	r.Post("/staff/{id}/pin", staff.UpdateStaffPINCommandHandler(s.DB, s.Audit))
	r.Post("/staff/{id}/delete", staff.DeleteStaffCommandHandler(s.DB, s.Audit, s.Hub))
}

func (s *Server) registerExportRoutes(r chi.Router) {
	r.Get("/exports/blocks.csv", exports.BlocksCSVHandler(s.DB))
	r.Get("/exports/powercuts.csv", exports.PowerCutsCSVHandler(s.DB))
}
