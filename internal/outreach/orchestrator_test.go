package outreach_test

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/unclebandit/outreach-backend/internal/channel"
	"github.com/unclebandit/outreach-backend/internal/dispatch"
	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/outreach"
)

// --- Mock Repositories ---

type mockTemplateRepo struct {
	tpl *model.Template
}

func (m *mockTemplateRepo) Create(t *model.Template) error { return nil }
func (m *mockTemplateRepo) GetByID(id int) (*model.Template, error) {
	if m.tpl == nil || m.tpl.ID != id {
		return nil, appErrors.NewTemplateNotFound(id)
	}
	return m.tpl, nil
}
func (m *mockTemplateRepo) ListByChannel(channel string) ([]*model.Template, error) { return nil, nil }
func (m *mockTemplateRepo) SetActive(id int, active bool) error                     { return nil }

type mockContactRepo struct {
	mu       sync.Mutex
	contacts []*model.Contact
	claims   int
}

func (m *mockContactRepo) Create(c *model.Contact) error { return nil }

func (m *mockContactRepo) GetByID(id int) (*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockContactRepo) ListContacts(offset, limit int, channel, status string) ([]*model.Contact, int, error) {
	return nil, 0, nil
}

func (m *mockContactRepo) ClaimPending(channel string, limit int) ([]*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims++

	claimed := []*model.Contact{}
	for _, c := range m.contacts {
		if len(claimed) >= limit {
			break
		}
		if c.Channel == channel && c.Status == model.StatusPending {
			c.Status = model.StatusQueued
			claimed = append(claimed, c)
		}
	}
	return claimed, nil
}

func (m *mockContactRepo) UpdateStatus(id int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.ID == id {
			c.Status = status
		}
	}
	return nil
}

func (m *mockContactRepo) MarkSent(id int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.ID == id {
			c.Status = model.StatusSent
			c.LastContactedAt = &at
		}
	}
	return nil
}

func (m *mockContactRepo) StatusCounts(channel string) (map[string]int, error) {
	return map[string]int{}, nil
}

func (m *mockContactRepo) statusOf(id int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.ID == id {
			return c.Status
		}
	}
	return ""
}

type mockLogRepo struct {
	mu      sync.Mutex
	entries []*model.OutreachLog
	err     error
}

func (m *mockLogRepo) LogAction(entry *model.OutreachLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockLogRepo) ListRecent(channel string, limit int) ([]*model.OutreachLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries, nil
}

// --- Mock Channel ---

type sentMessage struct {
	contactID int
	body      string
	subject   string
}

type mockChannel struct {
	name     string
	readyErr error
	sendErr  error

	mu   sync.Mutex
	sent []sentMessage
}

func (m *mockChannel) Name() string                           { return m.name }
func (m *mockChannel) Ready() error                           { return m.readyErr }
func (m *mockChannel) DefaultLimit() int                      { return 10 }
func (m *mockChannel) Address(c *model.Contact) string        { return c.Handle }
func (m *mockChannel) Validate(c *model.Contact) error        { return nil }
func (m *mockChannel) Send(ctx context.Context, c *model.Contact, body, subject string) (*outreach.SendResult, error) {
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.mu.Lock()
	m.sent = append(m.sent, sentMessage{contactID: c.ID, body: body, subject: subject})
	m.mu.Unlock()
	return &outreach.SendResult{ProviderID: fmt.Sprintf("prov-%d", c.ID)}, nil
}

func newTestOrchestrator(tpl *model.Template, contacts []*model.Contact, ch outreach.Channel) (*outreach.Orchestrator, *mockContactRepo, *mockLogRepo) {
	contactRepo := &mockContactRepo{contacts: contacts}
	logRepo := &mockLogRepo{}
	orch := &outreach.Orchestrator{
		TemplateRepo: &mockTemplateRepo{tpl: tpl},
		ContactRepo:  contactRepo,
		LogRepo:      logRepo,
		Channels:     map[string]outreach.Channel{ch.Name(): ch},
		Dispatch:     dispatch.Config{Concurrency: 2, SendTimeout: time.Second},
	}
	return orch, contactRepo, logRepo
}

// --- Tests ---

func TestRunOutreachHappyPath(t *testing.T) {
	tpl := &model.Template{ID: 1, Channel: "mock", Body: "Hi {{name}}", Active: true}
	contacts := []*model.Contact{
		{ID: 1, Channel: "mock", Handle: "ava", Name: "Ava", Status: model.StatusPending},
	}
	ch := &mockChannel{name: "mock"}

	orch, contactRepo, logRepo := newTestOrchestrator(tpl, contacts, ch)

	result, err := orch.RunOutreach(context.Background(), "mock", 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.Total != 1 || result.Sent != 1 || result.Failed != 0 || result.Deferred != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(ch.sent) != 1 || ch.sent[0].body != "Hi Ava" {
		t.Errorf("expected rendered body 'Hi Ava', got %+v", ch.sent)
	}
	if got := contactRepo.statusOf(1); got != model.StatusSent {
		t.Errorf("expected contact marked sent, got %s", got)
	}

	if len(logRepo.entries) != 2 {
		t.Fatalf("expected send + summary log entries, got %d", len(logRepo.entries))
	}
	if logRepo.entries[0].Action != "send" || !logRepo.entries[0].Success {
		t.Errorf("unexpected first log entry: %+v", logRepo.entries[0])
	}
	if logRepo.entries[0].ProviderID != "prov-1" {
		t.Errorf("expected provider id on send entry, got %q", logRepo.entries[0].ProviderID)
	}

	summary := logRepo.entries[len(logRepo.entries)-1]
	if summary.Action != "campaign_summary" {
		t.Errorf("summary must be the last entry, got %+v", summary)
	}
	if summary.Metadata["sent"] != 1 || summary.Metadata["total"] != 1 {
		t.Errorf("unexpected summary metadata: %+v", summary.Metadata)
	}
}

func TestRunOutreachZeroPendingContacts(t *testing.T) {
	tpl := &model.Template{ID: 1, Channel: "mock", Body: "Hi {{name}}", Active: true}
	ch := &mockChannel{name: "mock"}

	orch, _, logRepo := newTestOrchestrator(tpl, nil, ch)

	result, err := orch.RunOutreach(context.Background(), "mock", 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.Total != 0 || result.Sent != 0 || result.Failed != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
	if len(ch.sent) != 0 {
		t.Error("dispatcher should not be invoked with zero contacts")
	}

	// Even an empty run leaves its summary in the audit trail.
	if len(logRepo.entries) != 1 {
		t.Fatalf("expected only the summary entry, got %d", len(logRepo.entries))
	}
	summary := logRepo.entries[0]
	if summary.Action != "campaign_summary" || !summary.Success {
		t.Errorf("unexpected summary entry: %+v", summary)
	}
	if summary.Metadata["total"] != 0 {
		t.Errorf("unexpected summary metadata: %+v", summary.Metadata)
	}
}

func TestRunOutreachTemplateNotFound(t *testing.T) {
	ch := &mockChannel{name: "mock"}
	orch, contactRepo, _ := newTestOrchestrator(nil, []*model.Contact{
		{ID: 1, Channel: "mock", Handle: "ava", Status: model.StatusPending},
	}, ch)

	_, err := orch.RunOutreach(context.Background(), "mock", 42, 0, nil)

	var notFound *appErrors.ErrTemplateNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	if contactRepo.claims != 0 {
		t.Error("no contacts should be claimed when the template is missing")
	}
}

func TestRunOutreachInactiveTemplate(t *testing.T) {
	tpl := &model.Template{ID: 1, Channel: "mock", Body: "Hi", Active: false}
	ch := &mockChannel{name: "mock"}
	orch, _, _ := newTestOrchestrator(tpl, nil, ch)

	_, err := orch.RunOutreach(context.Background(), "mock", 1, 0, nil)

	var notFound *appErrors.ErrTemplateNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrTemplateNotFound for inactive template, got %v", err)
	}
}

func TestRunOutreachUnknownChannel(t *testing.T) {
	tpl := &model.Template{ID: 1, Body: "Hi", Active: true}
	ch := &mockChannel{name: "mock"}
	orch, _, _ := newTestOrchestrator(tpl, nil, ch)

	_, err := orch.RunOutreach(context.Background(), "telegram", 1, 0, nil)

	var unknown *appErrors.ErrUnknownChannel
	if !errors.As(err, &unknown) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
}

func TestRunOutreachUnconfiguredChannel(t *testing.T) {
	tpl := &model.Template{ID: 1, Channel: "email", Body: "Hi {{name}}", Active: true}
	contacts := []*model.Contact{
		{ID: 1, Channel: "email", Handle: "ava@example.com", Name: "Ava", Status: model.StatusPending},
	}

	// No SMTP host or sender configured.
	orch, contactRepo, logRepo := newTestOrchestrator(tpl, contacts, &channel.Email{})
	orch.Caps = outreach.NewDailyCaps(map[string]int{"email": 5})

	_, err := orch.RunOutreach(context.Background(), "email", 1, 0, nil)

	var missing *appErrors.ErrMissingCredentials
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if contactRepo.claims != 0 {
		t.Error("no contacts should be claimed when the transport is unconfigured")
	}
	if got := contactRepo.statusOf(1); got != model.StatusPending {
		t.Errorf("contact must stay pending, got %s", got)
	}
	if len(logRepo.entries) != 0 {
		t.Errorf("expected no audit entries, got %d", len(logRepo.entries))
	}
	if r := orch.Caps.Remaining("email"); r != 5 {
		t.Errorf("daily cap must be untouched, got %d remaining", r)
	}
}

func TestRunOutreachInvalidEmailAddress(t *testing.T) {
	tpl := &model.Template{ID: 1, Channel: "email", Subject: "Hello {{name}}", Body: "Hi {{name}}", Active: true}
	contacts := []*model.Contact{
		{ID: 1, Channel: "email", Handle: "not-an-email", Name: "Ava", Status: model.StatusPending},
		{ID: 2, Channel: "email", Handle: "bob@example.com", Name: "Bob", Status: model.StatusPending},
	}

	var mu sync.Mutex
	var messages []string
	email := &channel.Email{
		Host: "smtp.test",
		Port: 587,
		From: "outreach@test",
		SendMail: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			mu.Lock()
			messages = append(messages, string(msg))
			mu.Unlock()
			return nil
		},
	}

	orch, contactRepo, logRepo := newTestOrchestrator(tpl, contacts, email)

	result, err := orch.RunOutreach(context.Background(), "email", 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.Total != 2 || result.Sent != 1 || result.Failed != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Error, "invalid address") {
		t.Errorf("expected invalid address error, got %+v", result.Errors)
	}
	if got := contactRepo.statusOf(1); got != model.StatusPending {
		t.Errorf("invalid contact should stay pending, got %s", got)
	}
	if got := contactRepo.statusOf(2); got != model.StatusSent {
		t.Errorf("valid contact should be sent, got %s", got)
	}
	if len(messages) != 1 || !strings.Contains(messages[0], "Hi Bob") {
		t.Errorf("transport should only see the valid contact, got %v", messages)
	}
	if len(logRepo.entries) != 3 {
		t.Errorf("expected 2 send entries + summary, got %d", len(logRepo.entries))
	}
}

func TestRunOutreachSendFailureLeavesPending(t *testing.T) {
	tpl := &model.Template{ID: 1, Channel: "mock", Body: "Hi {{name}}", Active: true}
	contacts := []*model.Contact{
		{ID: 7, Channel: "mock", Handle: "ava", Name: "Ava", Status: model.StatusPending},
	}
	ch := &mockChannel{name: "mock", sendErr: errors.New("vendor 503")}

	orch, contactRepo, logRepo := newTestOrchestrator(tpl, contacts, ch)

	result, err := orch.RunOutreach(context.Background(), "mock", 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.Sent != 0 || result.Failed != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Error != "vendor 503" {
		t.Errorf("vendor error must be preserved verbatim, got %+v", result.Errors)
	}
	if got := contactRepo.statusOf(7); got != model.StatusPending {
		t.Errorf("failed contact must stay pending for the next run, got %s", got)
	}

	var sendEntry *model.OutreachLog
	for _, e := range logRepo.entries {
		if e.Action == "send" {
			sendEntry = e
		}
	}
	if sendEntry == nil || sendEntry.Success || sendEntry.Error != "vendor 503" {
		t.Errorf("expected failed send log entry, got %+v", sendEntry)
	}
}

func TestRunOutreachDailyCapDefers(t *testing.T) {
	tpl := &model.Template{ID: 1, Channel: "mock", Body: "Hi {{name}}", Active: true}
	contacts := []*model.Contact{
		{ID: 1, Channel: "mock", Handle: "a", Status: model.StatusPending},
		{ID: 2, Channel: "mock", Handle: "b", Status: model.StatusPending},
		{ID: 3, Channel: "mock", Handle: "c", Status: model.StatusPending},
	}
	ch := &mockChannel{name: "mock"}

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	orch, contactRepo, _ := newTestOrchestrator(tpl, contacts, ch)
	orch.Caps = outreach.NewDailyCapsWithClock(map[string]int{"mock": 1}, func() time.Time { return now })

	result, err := orch.RunOutreach(context.Background(), "mock", 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.Total != 3 || result.Sent != 1 || result.Failed != 0 || result.Deferred != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Total != result.Sent+result.Failed+result.Deferred {
		t.Errorf("result arithmetic broken: %+v", result)
	}
	if got := contactRepo.statusOf(2); got != model.StatusPending {
		t.Errorf("deferred contact must stay pending, got %s", got)
	}

	// Budget exhausted: a second run the same day defers everything.
	second, err := orch.RunOutreach(context.Background(), "mock", 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if second.Sent != 0 || second.Deferred != second.Total {
		t.Errorf("expected full deferral on exhausted cap, got %+v", second)
	}

	// Next day the counter resets and sends resume.
	now = now.Add(24 * time.Hour)
	third, err := orch.RunOutreach(context.Background(), "mock", 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if third.Sent != 1 {
		t.Errorf("expected sends to resume after day boundary, got %+v", third)
	}
}

func TestRunOutreachLogFailureDoesNotAbort(t *testing.T) {
	tpl := &model.Template{ID: 1, Channel: "mock", Body: "Hi", Active: true}
	contacts := []*model.Contact{
		{ID: 1, Channel: "mock", Handle: "ava", Status: model.StatusPending},
	}
	ch := &mockChannel{name: "mock"}

	orch, _, logRepo := newTestOrchestrator(tpl, contacts, ch)
	logRepo.err = errors.New("audit store down")

	result, err := orch.RunOutreach(context.Background(), "mock", 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.Sent != 1 {
		t.Errorf("log failures must not affect the primary flow, got %+v", result)
	}
	if result.LogErrors != 2 {
		t.Errorf("expected 2 dropped log writes (send + summary), got %d", result.LogErrors)
	}
}
