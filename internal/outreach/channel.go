package outreach

import (
	"context"

	"github.com/unclebandit/outreach-backend/internal/model"
)

// SendResult carries the provider-assigned identifier for a delivered
// message, when the transport returns one.
type SendResult struct {
	ProviderID string
}

// Channel is the capability set one outreach medium supplies to the
// orchestrator. Implementations live in internal/channel; the
// orchestrator stays channel-agnostic.
type Channel interface {
	Name() string

	// Ready reports whether the transport is configured. An unready
	// channel fails a run up front, before any contact is claimed.
	Ready() error

	// DefaultLimit is the batch size used when a run does not specify one.
	DefaultLimit() int

	// Address resolves the contact's channel-specific destination.
	Address(c *model.Contact) string

	// Validate rejects a contact locally before the transport is called.
	Validate(c *model.Contact) error

	Send(ctx context.Context, c *model.Contact, body, subject string) (*SendResult, error)
}
