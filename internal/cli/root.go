// Package cli holds the subcommands behind cmd/outreach.
package cli

import (
	"database/sql"
	"strings"

	"github.com/unclebandit/outreach-backend/internal/channel"
	"github.com/unclebandit/outreach-backend/internal/config"
	"github.com/unclebandit/outreach-backend/internal/db"
	"github.com/unclebandit/outreach-backend/internal/dispatch"
	"github.com/unclebandit/outreach-backend/internal/outreach"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

type deps struct {
	cfg          *config.Config
	db           *sql.DB
	orchestrator *outreach.Orchestrator
	templateRepo *repository.TemplateRepository
	contactRepo  *repository.ContactRepository
}

func newDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db.Init(cfg.DatabaseURL)

	templateRepo := &repository.TemplateRepository{DB: db.DB}
	contactRepo := &repository.ContactRepository{DB: db.DB}
	logRepo := &repository.OutreachLogRepository{DB: db.DB}

	return &deps{
		cfg:          cfg,
		db:           db.DB,
		templateRepo: templateRepo,
		contactRepo:  contactRepo,
		orchestrator: &outreach.Orchestrator{
			TemplateRepo: templateRepo,
			ContactRepo:  contactRepo,
			LogRepo:      logRepo,
			Channels:     channel.Build(cfg),
			Caps:         outreach.NewDailyCaps(cfg.DailyCaps),
			Dispatch: dispatch.Config{
				Concurrency:  cfg.DispatchConcurrency,
				Window:       cfg.DispatchWindow,
				CapPerWindow: cfg.DispatchCapPerWindow,
				SendTimeout:  cfg.SendTimeout,
			},
		},
	}, nil
}

// parseVars turns key=value flags into a variable map.
func parseVars(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		vars[k] = v
	}
	return vars
}
