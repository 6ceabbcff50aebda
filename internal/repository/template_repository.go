package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(t *model.Template) error
	GetByID(id int) (*model.Template, error)
	ListByChannel(channel string) ([]*model.Template, error)
	SetActive(id int, active bool) error
}

type TemplateRepository struct {
	DB *sql.DB
}

func (r *TemplateRepository) Create(t *model.Template) error {
	t.CreatedAt = time.Now()
	if t.Kind == "" {
		t.Kind = "message"
	}
	query := `
        INSERT INTO templates (channel, kind, subject, body, placeholders, active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRow(query, t.Channel, t.Kind, t.Subject, t.Body, t.Placeholders, t.Active, t.CreatedAt).Scan(&t.ID)
}

func (r *TemplateRepository) GetByID(id int) (*model.Template, error) {
	query := `
        SELECT id, channel, kind, subject, body, placeholders, active, created_at, updated_at
        FROM templates WHERE id=$1
    `
	var t model.Template
	err := r.DB.QueryRow(query, id).Scan(
		&t.ID, &t.Channel, &t.Kind, &t.Subject, &t.Body,
		&t.Placeholders, &t.Active, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewTemplateNotFound(id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) ListByChannel(channel string) ([]*model.Template, error) {
	templates := []*model.Template{}
	query := `
        SELECT id, channel, kind, subject, body, placeholders, active, created_at, updated_at
        FROM templates
    `
	args := []interface{}{}
	if channel != "" {
		query += ` WHERE channel=$1`
		args = append(args, channel)
	}
	query += ` ORDER BY id DESC`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		t := &model.Template{}
		if err := rows.Scan(&t.ID, &t.Channel, &t.Kind, &t.Subject, &t.Body, &t.Placeholders, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *TemplateRepository) SetActive(id int, active bool) error {
	query := `UPDATE templates SET active=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, active, id)
	return err
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
