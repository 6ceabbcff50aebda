// internal/errors/errors.go
package appErrors

import "fmt"

// ErrTemplateNotFound is returned when a run references a template that
// does not exist or is inactive. It aborts the run before any contact is
// claimed.
type ErrTemplateNotFound struct {
	TemplateID int
}

func (e *ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("template with ID %d not found", e.TemplateID)
}

// Helper constructor
func NewTemplateNotFound(id int) error {
	return &ErrTemplateNotFound{TemplateID: id}
}

// ErrUnknownChannel is returned when no channel implementation is
// registered under the requested name.
type ErrUnknownChannel struct {
	Channel string
}

func (e *ErrUnknownChannel) Error() string {
	return fmt.Sprintf("unknown channel: %s", e.Channel)
}

func NewUnknownChannel(channel string) error {
	return &ErrUnknownChannel{Channel: channel}
}

// ErrInvalidAddress marks a contact whose handle fails channel-local
// validation; the transport is never called for it.
type ErrInvalidAddress struct {
	Handle string
}

func (e *ErrInvalidAddress) Error() string {
	return fmt.Sprintf("invalid address: %q", e.Handle)
}

func NewInvalidAddress(handle string) error {
	return &ErrInvalidAddress{Handle: handle}
}

// ErrMissingCredentials is returned when a channel transport is not
// configured; every send on that channel fails with it.
type ErrMissingCredentials struct {
	Channel string
}

func (e *ErrMissingCredentials) Error() string {
	return fmt.Sprintf("missing credentials for channel: %s", e.Channel)
}

func NewMissingCredentials(channel string) error {
	return &ErrMissingCredentials{Channel: channel}
}
