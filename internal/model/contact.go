// internal/model/contact.go
package model

import (
	"time"

	"github.com/lib/pq"
)

// Contact statuses. Only pending contacts are eligible for dispatch;
// queued marks a claim held by an in-flight campaign run.
const (
	StatusPending      = "pending"
	StatusQueued       = "queued"
	StatusSent         = "sent"
	StatusEngaged      = "engaged"
	StatusReplied      = "replied"
	StatusUnsubscribed = "unsubscribed"
	StatusBounced      = "bounced"
)

type Contact struct {
	ID              int            `db:"id" json:"id"`
	Channel         string         `db:"channel" json:"channel"`
	Handle          string         `db:"handle" json:"handle"`
	Name            string         `db:"name" json:"name"`
	Status          string         `db:"status" json:"status"`
	Tags            pq.StringArray `db:"tags" json:"tags"`
	LastContactedAt *time.Time     `db:"last_contacted_at" json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}
