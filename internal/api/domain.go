package api

import (
	"fmt"

	"github.com/medscreen/adaudit/internal/analyses"
	"github.com/medscreen/adaudit/internal/catalog"
	"github.com/medscreen/adaudit/internal/feedback"
	"github.com/medscreen/adaudit/internal/learning"
	"github.com/medscreen/adaudit/internal/performance"
	"github.com/medscreen/adaudit/internal/prompts"
	"github.com/medscreen/adaudit/internal/proposer"
	"github.com/medscreen/adaudit/internal/settings"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Analyses    analyses.System
	Feedback    feedback.System
	Performance performance.System
	Learning    learning.System
	Settings    settings.System
	Prompts     prompts.System
	Scheduler   *learning.Scheduler
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) (*Domain, error) {
	db := runtime.Database.Connection()

	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	promptsSystem := prompts.New(
		db,
		runtime.Logger,
		runtime.Pagination,
	)

	settingsSystem := settings.New(db, runtime.Logger)

	feedbackSystem := feedback.New(
		db,
		runtime.Logger,
		runtime.Pagination,
	)

	performanceSystem := performance.New(
		db,
		runtime.Logger,
		feedbackSystem,
		settingsSystem,
	)

	learningSystem := learning.New(
		db,
		runtime.Logger,
		feedbackSystem,
		settingsSystem,
	)

	proposerSystem := proposer.New(
		runtime.Agent,
		promptsSystem,
		cat,
		runtime.Analysis.ProposerTimeoutDuration(),
		runtime.Logger,
	)

	analysesSystem := analyses.New(
		db,
		runtime.Agent,
		runtime.Logger,
		runtime.Pagination,
		cat,
		proposerSystem,
		performanceSystem,
		runtime.Analysis.NegativeSupersetSlack,
	)

	scheduler := learning.NewScheduler(
		learningSystem,
		performanceSystem,
		settingsSystem,
		runtime.Analysis.SchedulerIntervalDuration(),
		runtime.Logger,
	)

	return &Domain{
		Analyses:    analysesSystem,
		Feedback:    feedbackSystem,
		Performance: performanceSystem,
		Learning:    learningSystem,
		Settings:    settingsSystem,
		Prompts:     promptsSystem,
		Scheduler:   scheduler,
	}, nil
}
