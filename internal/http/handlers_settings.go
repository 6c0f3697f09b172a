package http

import (
	"fmt"
	"net/http"

	"expensetracker/internal/log"
)

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	view := settingsView{
		page:          page{Title: "Settings", Active: "settings"},
		DemoBatchSize: s.demoBatchSize,
		DBPath:        s.dbPath,
		MirrorEnabled: s.mirrorEnabled,
	}
	if s.readiness != nil {
		if n, err := s.readiness.Count(r.Context()); err == nil {
			view.Records = int(n)
		}
	}
	s.render(w, r, "settings.html", "", view)
}

func (s *Server) handleSeedDemo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := s.expenses.AddDemoBatch(ctx, s.demoBatchSize)
	if err != nil {
		log.LogError(ctx, log.FromContext(ctx), "Failed to generate demo data", err, log.ErrorTypeDatabase, log.OpSeed)
		InternalServerError(fmt.Sprintf("Error generating demo data after %d records", n)).Write(w)
		return
	}

	msg := fmt.Sprintf("Added %d demo expenses", n)
	SuccessResponse(msg).
		TriggerDemoSeeded(n).
		TriggerSuccessNotification(msg).
		Write(w)
}
