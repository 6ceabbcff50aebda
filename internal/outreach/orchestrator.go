// internal/outreach/orchestrator.go
package outreach

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/outreach-backend/internal/dispatch"
	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

// Orchestrator turns "run template T on channel C for up to N contacts"
// into a completed CampaignResult: template resolution, contact claim,
// variable binding, dispatch, status transitions and audit logging.
type Orchestrator struct {
	TemplateRepo repository.TemplateRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	LogRepo      repository.OutreachLogRepositoryInterface
	Channels     map[string]Channel
	Caps         *DailyCaps
	Dispatch     dispatch.Config

	// Now is swappable in tests; time.Now when nil.
	Now func() time.Time
}

type job struct {
	contact *model.Contact
	address string
	body    string
	subject string
}

// RunOutreach executes one campaign run. Only precondition failures
// (unknown channel, unconfigured transport, missing/inactive template)
// are returned as errors; per-contact failures land in the result.
func (o *Orchestrator) RunOutreach(ctx context.Context, channelName string, templateID, limit int, extra map[string]string) (*CampaignResult, error) {
	ch, ok := o.Channels[channelName]
	if !ok {
		return nil, appErrors.NewUnknownChannel(channelName)
	}
	if err := ch.Ready(); err != nil {
		return nil, err
	}

	tpl, err := o.TemplateRepo.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if tpl == nil || !tpl.Active {
		return nil, appErrors.NewTemplateNotFound(templateID)
	}

	if limit <= 0 {
		limit = ch.DefaultLimit()
	}

	result := &CampaignResult{
		RunID:      uuid.NewString(),
		Channel:    channelName,
		TemplateID: templateID,
		Errors:     []ContactError{},
	}

	contacts, err := o.ContactRepo.ClaimPending(channelName, limit)
	if err != nil {
		return nil, err
	}
	result.Total = len(contacts)
	if len(contacts) == 0 {
		o.summarize(channelName, tpl, result)
		return result, nil
	}

	// Contacts beyond today's budget are deferred, not failed: release
	// the claim and leave them for the next run.
	allowed := len(contacts)
	if o.Caps != nil {
		if r := o.Caps.Remaining(channelName); r < allowed {
			allowed = r
		}
	}
	for _, c := range contacts[allowed:] {
		o.release(c.ID)
		result.Deferred++
	}
	contacts = contacts[:allowed]

	jobs := make([]dispatch.Job, 0, len(contacts))
	byID := make(map[string]*job, len(contacts))
	for _, c := range contacts {
		if err := ch.Validate(c); err != nil {
			o.failContact(ch, tpl, c, err.Error(), result)
			continue
		}
		address := ch.Address(c)
		vars := BindVars(c, address, extra)
		j := &job{
			contact: c,
			address: address,
			body:    RenderTemplate(tpl.Body, vars),
			subject: RenderTemplate(tpl.Subject, vars),
		}
		id := strconv.Itoa(c.ID)
		byID[id] = j
		jobs = append(jobs, dispatch.Job{ID: id, Data: j})
	}

	if o.Caps != nil {
		o.Caps.Add(channelName, len(jobs))
	}

	if len(jobs) > 0 {
		d := dispatch.New(o.Dispatch)
		outcomes := d.Run(ctx, jobs, func(ctx context.Context, dj dispatch.Job) dispatch.Result {
			j := dj.Data.(*job)
			sr, err := ch.Send(ctx, j.contact, j.body, j.subject)
			if err != nil {
				return dispatch.Result{JobID: dj.ID, Err: err.Error()}
			}
			res := dispatch.Result{JobID: dj.ID, Success: true}
			if sr != nil {
				res.ProviderID = sr.ProviderID
			}
			return res
		})

		for _, outcome := range outcomes {
			j := byID[outcome.JobID]
			if j == nil {
				continue
			}
			if outcome.Success {
				o.markSent(ch, tpl, j, outcome.ProviderID, result)
			} else {
				o.failContact(ch, tpl, j.contact, outcome.Err, result)
			}
		}
	}

	o.summarize(channelName, tpl, result)

	return result, nil
}

// summarize appends the per-run audit entry. Every run gets one, even a
// run that found nothing to send; it goes in only after every outcome is
// known.
func (o *Orchestrator) summarize(channelName string, tpl *model.Template, result *CampaignResult) {
	o.log(result, &model.OutreachLog{
		Channel:    channelName,
		Action:     "campaign_summary",
		Success:    result.Failed == 0,
		TemplateID: &tpl.ID,
		Metadata: map[string]any{
			"run_id":   result.RunID,
			"total":    result.Total,
			"sent":     result.Sent,
			"failed":   result.Failed,
			"deferred": result.Deferred,
		},
	})
}

func (o *Orchestrator) markSent(ch Channel, tpl *model.Template, j *job, providerID string, result *CampaignResult) {
	if err := o.ContactRepo.MarkSent(j.contact.ID, o.now()); err != nil {
		log.Println("⚠️ failed to mark contact sent:", err)
	}
	result.Sent++

	o.log(result, &model.OutreachLog{
		Channel:    ch.Name(),
		Action:     "send",
		Success:    true,
		ContactID:  &j.contact.ID,
		TemplateID: &tpl.ID,
		ProviderID: providerID,
		Metadata: map[string]any{
			"run_id":  result.RunID,
			"address": j.address,
			"subject": j.subject,
		},
	})
}

// failContact records a per-contact failure and releases the claim so
// the contact stays eligible for a future run.
func (o *Orchestrator) failContact(ch Channel, tpl *model.Template, c *model.Contact, errText string, result *CampaignResult) {
	o.release(c.ID)
	result.Failed++
	result.Errors = append(result.Errors, ContactError{ContactID: c.ID, Handle: c.Handle, Error: errText})

	o.log(result, &model.OutreachLog{
		Channel:    ch.Name(),
		Action:     "send",
		Success:    false,
		ContactID:  &c.ID,
		TemplateID: &tpl.ID,
		Error:      errText,
		Metadata:   map[string]any{"run_id": result.RunID},
	})
}

func (o *Orchestrator) release(contactID int) {
	if err := o.ContactRepo.UpdateStatus(contactID, model.StatusPending); err != nil {
		log.Println("⚠️ failed to release contact claim:", err)
	}
}

func (o *Orchestrator) log(result *CampaignResult, entry *model.OutreachLog) {
	if err := o.LogRepo.LogAction(entry); err != nil {
		log.Println("⚠️ failed to write outreach log:", err)
		result.LogErrors++
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
