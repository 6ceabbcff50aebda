package outreach

type ContactError struct {
	ContactID int    `json:"contact_id"`
	Handle    string `json:"handle"`
	Error     string `json:"error"`
}

// CampaignResult aggregates one run. Total always equals
// Sent + Failed + Deferred; deferred contacts were never attempted and
// stay pending for a future run.
type CampaignResult struct {
	RunID      string         `json:"run_id"`
	Channel    string         `json:"channel"`
	TemplateID int            `json:"template_id"`
	Total      int            `json:"total"`
	Sent       int            `json:"sent"`
	Failed     int            `json:"failed"`
	Deferred   int            `json:"deferred"`
	Errors     []ContactError `json:"errors"`

	// LogErrors counts audit entries that could not be written. Log
	// failures never abort a run; this is the only trace they leave.
	LogErrors int `json:"log_errors,omitempty"`
}
