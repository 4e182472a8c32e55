package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

const selectProjectType = "SELECT id, key, display_name_he, is_active FROM project_types"

type ProjectTypeRepository struct {
	DB *sql.DB
}

func NewProjectTypeRepository(db *sql.DB) *ProjectTypeRepository {
	return &ProjectTypeRepository{DB: db}
}

func (r *ProjectTypeRepository) List(ctx context.Context) ([]entity.ProjectType, error) {
	rows, err := r.DB.QueryContext(ctx, selectProjectType+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list project types: %w", err)
	}
	defer rows.Close()

	var out []entity.ProjectType
	for rows.Next() {
		var pt entity.ProjectType
		if err := rows.Scan(&pt.ID, &pt.Key, &pt.DisplayNameHe, &pt.IsActive); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

func (r *ProjectTypeRepository) FindByID(ctx context.Context, id int) (*entity.ProjectType, error) {
	return r.findOne(ctx, " WHERE id = $1", id)
}

func (r *ProjectTypeRepository) FindByKey(ctx context.Context, key string) (*entity.ProjectType, error) {
	return r.findOne(ctx, " WHERE key = $1", key)
}

func (r *ProjectTypeRepository) findOne(ctx context.Context, where string, arg any) (*entity.ProjectType, error) {
	var pt entity.ProjectType
	err := r.DB.QueryRowContext(ctx, selectProjectType+where, arg).Scan(&pt.ID, &pt.Key, &pt.DisplayNameHe, &pt.IsActive)
	if err != nil {
		return nil, translate(err)
	}
	return &pt, nil
}
