package api

import (
	"net/http"

	"github.com/medscreen/adaudit/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(
		mux,
		domain.Analyses.Handler().Routes(),
		domain.Feedback.Handler().Routes(),
		domain.Performance.Handler().Routes(),
		domain.Learning.Handler().Routes(),
		domain.Settings.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
	)
}
