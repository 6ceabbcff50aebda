package repository

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/unclebandit/outreach-backend/internal/model"
)

type ContactRepositoryInterface interface {
	Create(c *model.Contact) error
	GetByID(id int) (*model.Contact, error)
	ListContacts(offset, limit int, channel, status string) ([]*model.Contact, int, error)

	// ClaimPending atomically moves up to limit pending contacts for the
	// channel into queued status and returns them, oldest first. Two
	// overlapping runs can never claim the same contact.
	ClaimPending(channel string, limit int) ([]*model.Contact, error)
	UpdateStatus(id int, status string) error
	MarkSent(id int, at time.Time) error
	StatusCounts(channel string) (map[string]int, error)
}

type ContactRepository struct {
	DB *sql.DB
}

func (r *ContactRepository) Create(c *model.Contact) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.StatusPending
	}
	query := `
        INSERT INTO contacts (channel, handle, name, status, tags, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRow(query, c.Channel, c.Handle, c.Name, c.Status, c.Tags, c.CreatedAt).Scan(&c.ID)
}

func (r *ContactRepository) GetByID(id int) (*model.Contact, error) {
	query := `
        SELECT id, channel, handle, name, status, tags, last_contacted_at, created_at, updated_at
        FROM contacts WHERE id=$1
    `
	var c model.Contact
	err := r.DB.QueryRow(query, id).Scan(
		&c.ID, &c.Channel, &c.Handle, &c.Name, &c.Status,
		&c.Tags, &c.LastContactedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) ListContacts(offset, limit int, channel, status string) ([]*model.Contact, int, error) {
	contacts := []*model.Contact{}
	query := `SELECT id, channel, handle, name, status, tags, last_contacted_at, created_at, updated_at FROM contacts WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if channel != "" {
		query += fmt.Sprintf(" AND channel=$%d", argPos)
		args = append(args, channel)
		argPos++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Contact{}
		if err := rows.Scan(&c.ID, &c.Channel, &c.Handle, &c.Name, &c.Status, &c.Tags, &c.LastContactedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		contacts = append(contacts, c)
	}

	countQuery := `SELECT COUNT(*) FROM contacts WHERE 1=1`
	argsCount := []interface{}{}
	argPosCount := 1
	if channel != "" {
		countQuery += fmt.Sprintf(" AND channel=$%d", argPosCount)
		argsCount = append(argsCount, channel)
		argPosCount++
	}
	if status != "" {
		countQuery += fmt.Sprintf(" AND status=$%d", argPosCount)
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return contacts, total, nil
}

func (r *ContactRepository) ClaimPending(channel string, limit int) ([]*model.Contact, error) {
	query := `
        UPDATE contacts SET status=$1, updated_at=NOW()
        WHERE id IN (
            SELECT id FROM contacts
            WHERE channel=$2 AND status=$3
            ORDER BY id
            LIMIT $4
            FOR UPDATE SKIP LOCKED
        )
        RETURNING id, channel, handle, name, status, tags, last_contacted_at, created_at, updated_at
    `
	rows, err := r.DB.Query(query, model.StatusQueued, channel, model.StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []*model.Contact{}
	for rows.Next() {
		c := &model.Contact{}
		if err := rows.Scan(&c.ID, &c.Channel, &c.Handle, &c.Name, &c.Status, &c.Tags, &c.LastContactedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// RETURNING does not guarantee order; keep claims deterministic.
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].ID < contacts[j].ID })
	return contacts, nil
}

func (r *ContactRepository) UpdateStatus(id int, status string) error {
	query := `UPDATE contacts SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, status, id)
	return err
}

func (r *ContactRepository) MarkSent(id int, at time.Time) error {
	query := `UPDATE contacts SET status=$1, last_contacted_at=$2, updated_at=NOW() WHERE id=$3`
	_, err := r.DB.Exec(query, model.StatusSent, at, id)
	return err
}

func (r *ContactRepository) StatusCounts(channel string) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM contacts WHERE channel=$1 GROUP BY status`
	rows, err := r.DB.Query(query, channel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{
		model.StatusPending: 0,
		model.StatusQueued:  0,
		model.StatusSent:    0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
