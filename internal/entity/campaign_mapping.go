package entity

import (
	"context"
	"time"
)

// CampaignMapping routes ad campaigns to a project type by substring match.
type CampaignMapping struct {
	ID             string    `json:"id"`
	ContainsText   string    `json:"contains_text"`
	ProjectTypeKey string    `json:"project_type_key"`
	Priority       int       `json:"priority"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

type CampaignMappingRepositoryInterface interface {
	Create(ctx context.Context, m *CampaignMapping) error
	FindByID(ctx context.Context, id string) (*CampaignMapping, error)
	// ListActive returns active mappings ordered by priority ascending.
	ListActive(ctx context.Context) ([]CampaignMapping, error)
	Update(ctx context.Context, m *CampaignMapping) error
}
