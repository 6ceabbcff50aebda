package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/unclebandit/outreach-backend/internal/model"
)

type OutreachLogRepositoryInterface interface {
	// LogAction appends one audit entry. Callers treat failures as
	// best-effort: a log write error must never abort a campaign.
	LogAction(entry *model.OutreachLog) error
	ListRecent(channel string, limit int) ([]*model.OutreachLog, error)
}

type OutreachLogRepository struct {
	DB *sql.DB
}

func (r *OutreachLogRepository) LogAction(entry *model.OutreachLog) error {
	entry.CreatedAt = time.Now()

	var metadata []byte
	if entry.Metadata != nil {
		b, err := json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
		metadata = b
	}

	query := `
        INSERT INTO outreach_logs (channel, action, success, contact_id, template_id, metadata, provider_id, error, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(
		query,
		entry.Channel,
		entry.Action,
		entry.Success,
		entry.ContactID,
		entry.TemplateID,
		metadata,
		entry.ProviderID,
		entry.Error,
		entry.CreatedAt,
	).Scan(&entry.ID)
}

func (r *OutreachLogRepository) ListRecent(channel string, limit int) ([]*model.OutreachLog, error) {
	if limit < 1 {
		limit = 50
	}
	query := `
        SELECT id, channel, action, success, contact_id, template_id, metadata, provider_id, error, created_at
        FROM outreach_logs
    `
	args := []interface{}{}
	if channel != "" {
		query += ` WHERE channel=$1 ORDER BY id DESC LIMIT $2`
		args = append(args, channel, limit)
	} else {
		query += ` ORDER BY id DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*model.OutreachLog{}
	for rows.Next() {
		e := &model.OutreachLog{}
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.Channel, &e.Action, &e.Success, &e.ContactID, &e.TemplateID, &metadata, &e.ProviderID, &e.Error, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ OutreachLogRepositoryInterface = (*OutreachLogRepository)(nil)
