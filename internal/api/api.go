// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/medscreen/adaudit/internal/config"
	"github.com/medscreen/adaudit/internal/infrastructure"
	"github.com/medscreen/adaudit/pkg/middleware"
	"github.com/medscreen/adaudit/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware,
// and registers the learning scheduler on the application lifecycle.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, err
	}

	domain.Scheduler.Start(infra.Lifecycle)

	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	return m, nil
}
