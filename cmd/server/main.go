// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/outreach-backend/internal/channel"
	"github.com/unclebandit/outreach-backend/internal/config"
	"github.com/unclebandit/outreach-backend/internal/controller"
	"github.com/unclebandit/outreach-backend/internal/db"
	"github.com/unclebandit/outreach-backend/internal/dispatch"
	"github.com/unclebandit/outreach-backend/internal/outreach"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	db.Init(cfg.DatabaseURL)

	templateRepo := &repository.TemplateRepository{DB: db.DB}
	contactRepo := &repository.ContactRepository{DB: db.DB}
	logRepo := &repository.OutreachLogRepository{DB: db.DB}

	orchestrator := &outreach.Orchestrator{
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
	}

	q := queue.NewInMemoryQueue()
	queue.StartOutreachRunSubscriber(q, orchestrator)

	outreachController := &controller.OutreachController{
		Orchestrator: orchestrator,
		TemplateRepo: templateRepo,
		ContactRepo:  contactRepo,
		LogRepo:      logRepo,
		AMQPURL:      cfg.AMQPURL,
	}

	r := chi.NewRouter()

	// Template routes
	r.Post("/templates", outreachController.CreateTemplate)
	r.Get("/templates", outreachController.ListTemplates)
	r.Post("/templates/{id}/preview", outreachController.PreviewTemplate)

	// Contact routes
	r.Post("/contacts", outreachController.CreateContact)
	r.Get("/contacts", outreachController.ListContacts)

	// Outreach routes
	r.Post("/outreach/{channel}/run", outreachController.RunCampaign)
	r.Get("/outreach/{channel}/stats", outreachController.ChannelStats)
	r.Get("/logs", outreachController.ListLogs)

	log.Println("🚀 Server running on", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
