// internal/channel/channels.go
package channel

import (
	"github.com/unclebandit/outreach-backend/internal/config"
	"github.com/unclebandit/outreach-backend/internal/outreach"
)

// Build wires every configured channel. Channels without credentials are
// still registered; a run against one fails up front with a
// missing-credentials error so the gap is visible instead of silent.
func Build(cfg *config.Config) map[string]outreach.Channel {
	channels := map[string]outreach.Channel{
		"email": &Email{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			Limit:    cfg.DefaultLimits["email"],
		},
	}

	webhooks := map[string]string{
		"linkedin": cfg.LinkedInWebhookURL,
		"reddit":   cfg.RedditWebhookURL,
		"twitter":  cfg.TwitterWebhookURL,
	}
	for platform, endpoint := range webhooks {
		channels[platform] = &Webhook{
			Platform: platform,
			Endpoint: endpoint,
			Token:    cfg.RelayToken,
			Limit:    cfg.DefaultLimits[platform],
		}
	}

	return channels
}
