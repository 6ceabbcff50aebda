// internal/model/outreach_log.go
package model

import "time"

// OutreachLog is an append-only audit entry; the core never updates or
// deletes rows once written.
type OutreachLog struct {
	ID         int            `db:"id" json:"id"`
	Channel    string         `db:"channel" json:"channel"`
	Action     string         `db:"action" json:"action"`
	Success    bool           `db:"success" json:"success"`
	ContactID  *int           `db:"contact_id" json:"contact_id,omitempty"`
	TemplateID *int           `db:"template_id" json:"template_id,omitempty"`
	Metadata   map[string]any `db:"metadata" json:"metadata,omitempty"`
	ProviderID string         `db:"provider_id" json:"provider_id,omitempty"`
	Error      string         `db:"error" json:"error,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
