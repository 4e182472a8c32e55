package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

type ActivityUseCase struct {
	LeadRepo     entity.LeadRepositoryInterface
	ActivityRepo entity.ActivityRepositoryInterface
	Clock        clock.Clock
}

func NewActivityUseCase(leadRepo entity.LeadRepositoryInterface, activityRepo entity.ActivityRepositoryInterface, clk clock.Clock) *ActivityUseCase {
	if clk == nil {
		clk = clock.WallClock
	}
	return &ActivityUseCase{LeadRepo: leadRepo, ActivityRepo: activityRepo, Clock: clk}
}

func (uc *ActivityUseCase) List(ctx context.Context, leadID string) ([]entity.Activity, error) {
	if _, err := loadLead(ctx, uc.LeadRepo, leadID); err != nil {
		return nil, err
	}
	activities, err := uc.ActivityRepo.ListByLead(ctx, leadID)
	if err != nil {
		return nil, databaseError("list activities", err)
	}
	if activities == nil {
		activities = []entity.Activity{}
	}
	return activities, nil
}

func (uc *ActivityUseCase) Create(ctx context.Context, input CreateActivityInput, actor entity.User) (*entity.Activity, error) {
	if !input.Type.Valid() {
		return nil, ValidationErrors{{"type", "must be call, meeting, note or offer_sent"}}
	}
	if _, err := loadLead(ctx, uc.LeadRepo, input.LeadID); err != nil {
		return nil, err
	}

	a := &entity.Activity{
		ID:          uuid.NewString(),
		LeadID:      input.LeadID,
		Type:        input.Type,
		Description: input.Description,
		CreatedBy:   actor.ID,
		CreatedAt:   uc.Clock.Now(),
	}
	if err := uc.ActivityRepo.Create(ctx, a); err != nil {
		return nil, databaseError("create activity", err)
	}
	return a, nil
}
