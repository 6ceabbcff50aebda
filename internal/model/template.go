// internal/model/template.go
package model

import (
	"time"

	"github.com/lib/pq"
)

type Template struct {
	ID           int            `db:"id" json:"id"`
	Channel      string         `db:"channel" json:"channel"`
	Kind         string         `db:"kind" json:"kind"` // post, message, email, comment
	Subject      string         `db:"subject" json:"subject,omitempty"`
	Body         string         `db:"body" json:"body"`
	Placeholders pq.StringArray `db:"placeholders" json:"placeholders"`
	Active       bool           `db:"active" json:"active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}
