package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

type ActivityRepository struct {
	mu         sync.RWMutex
	activities []entity.Activity
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

func (r *ActivityRepository) Create(_ context.Context, a *entity.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities = append(r.activities, *a)
	return nil
}

// ListByLead returns newest first; equal timestamps keep reverse insertion order.
func (r *ActivityRepository) ListByLead(_ context.Context, leadID string) ([]entity.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []entity.Activity
	for i := len(r.activities) - 1; i >= 0; i-- {
		if r.activities[i].LeadID == leadID {
			out = append(out, r.activities[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type OfferRepository struct {
	mu     sync.RWMutex
	offers []entity.Offer
}

func NewOfferRepository() *OfferRepository {
	return &OfferRepository{}
}

func (r *OfferRepository) Create(_ context.Context, o *entity.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offers = append(r.offers, *o)
	return nil
}

func (r *OfferRepository) FindByID(_ context.Context, id string) (*entity.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.offers {
		if o.ID == id {
			o := o
			return &o, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (r *OfferRepository) ListByLead(_ context.Context, leadID string) ([]entity.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []entity.Offer
	for i := len(r.offers) - 1; i >= 0; i-- {
		if r.offers[i].LeadID == leadID {
			out = append(out, r.offers[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *OfferRepository) Update(_ context.Context, o *entity.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.offers {
		if r.offers[i].ID == o.ID {
			o.CreatedAt = r.offers[i].CreatedAt
			r.offers[i] = *o
			return nil
		}
	}
	return entity.ErrNotFound
}

type CampaignMappingRepository struct {
	mu       sync.RWMutex
	mappings []entity.CampaignMapping
}

func NewCampaignMappingRepository() *CampaignMappingRepository {
	return &CampaignMappingRepository{}
}

func (r *CampaignMappingRepository) Create(_ context.Context, m *entity.CampaignMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings = append(r.mappings, *m)
	return nil
}

func (r *CampaignMappingRepository) FindByID(_ context.Context, id string) (*entity.CampaignMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.mappings {
		if m.ID == id {
			m := m
			return &m, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (r *CampaignMappingRepository) ListActive(_ context.Context) ([]entity.CampaignMapping, error) {
	r.mu.RLock()
	var out []entity.CampaignMapping
	for _, m := range r.mappings {
		if m.IsActive {
			out = append(out, m)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (r *CampaignMappingRepository) Update(_ context.Context, m *entity.CampaignMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.mappings {
		if r.mappings[i].ID == m.ID {
			r.mappings[i] = *m
			return nil
		}
	}
	return entity.ErrNotFound
}

// ProjectTypeRepository serves the fixed seed.
type ProjectTypeRepository struct {
	types []entity.ProjectType
}

func NewProjectTypeRepository() *ProjectTypeRepository {
	return &ProjectTypeRepository{types: append([]entity.ProjectType(nil), entity.DefaultProjectTypes...)}
}

func (r *ProjectTypeRepository) List(context.Context) ([]entity.ProjectType, error) {
	return append([]entity.ProjectType(nil), r.types...), nil
}

func (r *ProjectTypeRepository) FindByID(_ context.Context, id int) (*entity.ProjectType, error) {
	for _, pt := range r.types {
		if pt.ID == id {
			pt := pt
			return &pt, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (r *ProjectTypeRepository) FindByKey(_ context.Context, key string) (*entity.ProjectType, error) {
	for _, pt := range r.types {
		if pt.Key == key {
			pt := pt
			return &pt, nil
		}
	}
	return nil, entity.ErrNotFound
}
