// internal/channel/webhook.go
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/outreach"
)

// Webhook posts rendered messages to a platform relay endpoint. One
// instance per social channel (linkedin, reddit, twitter); the relay
// owns the vendor SDK and ToS handling.
type Webhook struct {
	Platform string
	Endpoint string
	Token    string
	Limit    int
	Client   *http.Client
}

func (w *Webhook) Name() string { return w.Platform }

func (w *Webhook) Ready() error {
	if w.Endpoint == "" {
		return appErrors.NewMissingCredentials(w.Platform)
	}
	return nil
}

func (w *Webhook) DefaultLimit() int {
	if w.Limit > 0 {
		return w.Limit
	}
	return 25
}

func (w *Webhook) Address(c *model.Contact) string { return c.Handle }

func (w *Webhook) Validate(c *model.Contact) error {
	if strings.TrimSpace(c.Handle) == "" {
		return appErrors.NewInvalidAddress(c.Handle)
	}
	return nil
}

func (w *Webhook) Send(ctx context.Context, c *model.Contact, body, subject string) (*outreach.SendResult, error) {
	if err := w.Ready(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{
		"handle":  c.Handle,
		"subject": subject,
		"message": body,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.Token != "" {
		req.Header.Set("Authorization", "Bearer "+w.Token)
	}

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s relay returned %d: %s", w.Platform, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.ID == "" {
		// Relay gave no usable id; mint one so the audit trail still has
		// a stable reference.
		return &outreach.SendResult{ProviderID: uuid.NewString()}, nil
	}
	return &outreach.SendResult{ProviderID: out.ID}, nil
}

var _ outreach.Channel = (*Webhook)(nil)
