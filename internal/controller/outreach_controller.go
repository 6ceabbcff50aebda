// internal/controller/outreach_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/streadway/amqp"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/outreach"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

type OutreachController struct {
	Orchestrator *outreach.Orchestrator
	TemplateRepo repository.TemplateRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	LogRepo      repository.OutreachLogRepositoryInterface

	// AMQPURL enables the async run path; empty disables it.
	AMQPURL string
}

func (c *OutreachController) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Channel      string   `json:"channel"`
		Kind         string   `json:"kind"`
		Subject      string   `json:"subject"`
		Body         string   `json:"body"`
		Placeholders []string `json:"placeholders"`
		Active       *bool    `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	tpl := &model.Template{
		Channel:      body.Channel,
		Kind:         body.Kind,
		Subject:      body.Subject,
		Body:         body.Body,
		Placeholders: body.Placeholders,
		Active:       true,
	}
	if body.Active != nil {
		tpl.Active = *body.Active
	}

	if err := c.TemplateRepo.Create(tpl); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tpl)
}

func (c *OutreachController) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := c.TemplateRepo.ListByChannel(r.URL.Query().Get("channel"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": templates})
}

// PreviewTemplate renders a template against a real contact without
// sending anything.
func (c *OutreachController) PreviewTemplate(w http.ResponseWriter, r *http.Request) {
	templateIDStr := chi.URLParam(r, "id")
	templateID, _ := strconv.Atoi(templateIDStr)

	var body struct {
		ContactID int               `json:"contact_id"`
		Variables map[string]string `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	tpl, err := c.TemplateRepo.GetByID(templateID)
	if err != nil {
		status := http.StatusInternalServerError
		var notFound *appErrors.ErrTemplateNotFound
		if errors.As(err, &notFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	contact, err := c.ContactRepo.GetByID(body.ContactID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if contact == nil {
		http.Error(w, "contact not found", http.StatusNotFound)
		return
	}

	vars := outreach.BindVars(contact, contact.Handle, body.Variables)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"rendered_body":    outreach.RenderTemplate(tpl.Body, vars),
		"rendered_subject": outreach.RenderTemplate(tpl.Subject, vars),
		"contact_id":       contact.ID,
	})
}

func (c *OutreachController) CreateContact(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Channel string   `json:"channel"`
		Handle  string   `json:"handle"`
		Name    string   `json:"name"`
		Tags    []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	contact := &model.Contact{
		Channel: body.Channel,
		Handle:  body.Handle,
		Name:    body.Name,
		Status:  model.StatusPending,
		Tags:    body.Tags,
	}
	if err := c.ContactRepo.Create(contact); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(contact)
}

func (c *OutreachController) ListContacts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	channel := r.URL.Query().Get("channel")
	status := r.URL.Query().Get("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	contacts, total, err := c.ContactRepo.ListContacts(offset, pageSize, channel, status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": contacts,
		"pagination": map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": totalPages,
		},
	})
}

// RunCampaign triggers an outreach run for a channel. With "async": true
// the run is published to RabbitMQ and picked up by cmd/worker;
// otherwise it executes inline and returns the full result.
func (c *OutreachController) RunCampaign(w http.ResponseWriter, r *http.Request) {
	channelName := chi.URLParam(r, "channel")

	var body struct {
		TemplateID int               `json:"template_id"`
		Limit      int               `json:"limit"`
		Variables  map[string]string `json:"variables"`
		Async      bool              `json:"async"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if body.Async {
		c.publishRun(w, queue.RunRequest{
			Channel:    channelName,
			TemplateID: body.TemplateID,
			Limit:      body.Limit,
			Variables:  body.Variables,
		})
		return
	}

	result, err := c.Orchestrator.RunOutreach(r.Context(), channelName, body.TemplateID, body.Limit, body.Variables)
	if err != nil {
		status := http.StatusInternalServerError
		var notFound *appErrors.ErrTemplateNotFound
		var unknown *appErrors.ErrUnknownChannel
		var missing *appErrors.ErrMissingCredentials
		switch {
		case errors.As(err, &notFound):
			status = http.StatusNotFound
		case errors.As(err, &unknown):
			status = http.StatusBadRequest
		case errors.As(err, &missing):
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (c *OutreachController) publishRun(w http.ResponseWriter, req queue.RunRequest) {
	if c.AMQPURL == "" {
		http.Error(w, "async runs are not configured", http.StatusServiceUnavailable)
		return
	}

	conn, err := amqp.Dial(c.AMQPURL)
	if err != nil {
		http.Error(w, "Failed to connect to queue", http.StatusInternalServerError)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		http.Error(w, "Failed to open queue channel", http.StatusInternalServerError)
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queue.TopicOutreachRuns,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		http.Error(w, "Failed to declare queue", http.StatusInternalServerError)
		return
	}

	payload, _ := json.Marshal(req)
	err = ch.Publish(
		"",
		q.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        payload,
		},
	)
	if err != nil {
		log.Println("Failed to publish run:", err)
		http.Error(w, "Failed to publish run", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":      "queued",
		"channel":     req.Channel,
		"template_id": req.TemplateID,
	})
}

func (c *OutreachController) ChannelStats(w http.ResponseWriter, r *http.Request) {
	channelName := chi.URLParam(r, "channel")

	counts, err := c.ContactRepo.StatusCounts(channelName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"channel": channelName,
		"stats":   counts,
	})
}

func (c *OutreachController) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := c.LogRepo.ListRecent(r.URL.Query().Get("channel"), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": entries})
}
