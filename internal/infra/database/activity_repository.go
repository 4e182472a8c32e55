package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

type ActivityRepository struct {
	DB *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Create(ctx context.Context, a *entity.Activity) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO activities (id, lead_id, type, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.LeadID, string(a.Type), a.Description, a.CreatedBy, a.CreatedAt,
	)
	return translate(err)
}

func (r *ActivityRepository) ListByLead(ctx context.Context, leadID string) ([]entity.Activity, error) {
	if !validID(leadID) {
		return nil, nil
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, lead_id, type, description, created_by, created_at
		FROM activities
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var out []entity.Activity
	for rows.Next() {
		var (
			a           entity.Activity
			kind        string
			description sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.LeadID, &kind, &description, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Type = entity.ActivityType(kind)
		a.Description = fromNull(description)
		out = append(out, a)
	}
	return out, rows.Err()
}
