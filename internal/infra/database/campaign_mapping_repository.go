package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

const selectMapping = "SELECT id, contains_text, project_type_key, priority, is_active, created_at FROM campaign_mappings"

type CampaignMappingRepository struct {
	DB *sql.DB
}

func NewCampaignMappingRepository(db *sql.DB) *CampaignMappingRepository {
	return &CampaignMappingRepository{DB: db}
}

func (r *CampaignMappingRepository) Create(ctx context.Context, m *entity.CampaignMapping) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO campaign_mappings (id, contains_text, project_type_key, priority, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ContainsText, m.ProjectTypeKey, m.Priority, m.IsActive, m.CreatedAt,
	)
	return translate(err)
}

func (r *CampaignMappingRepository) FindByID(ctx context.Context, id string) (*entity.CampaignMapping, error) {
	if !validID(id) {
		return nil, entity.ErrNotFound
	}
	var m entity.CampaignMapping
	err := r.DB.QueryRowContext(ctx, selectMapping+" WHERE id = $1", id).
		Scan(&m.ID, &m.ContainsText, &m.ProjectTypeKey, &m.Priority, &m.IsActive, &m.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *CampaignMappingRepository) ListActive(ctx context.Context) ([]entity.CampaignMapping, error) {
	rows, err := r.DB.QueryContext(ctx, selectMapping+" WHERE is_active ORDER BY priority ASC, created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("list campaign mappings: %w", err)
	}
	defer rows.Close()

	var out []entity.CampaignMapping
	for rows.Next() {
		var m entity.CampaignMapping
		if err := rows.Scan(&m.ID, &m.ContainsText, &m.ProjectTypeKey, &m.Priority, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *CampaignMappingRepository) Update(ctx context.Context, m *entity.CampaignMapping) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE campaign_mappings
		SET contains_text = $2, project_type_key = $3, priority = $4, is_active = $5
		WHERE id = $1`,
		m.ID, m.ContainsText, m.ProjectTypeKey, m.Priority, m.IsActive,
	)
	if err != nil {
		return translate(err)
	}
	return expectOneRow(res)
}
