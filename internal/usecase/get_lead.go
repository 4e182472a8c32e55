package usecase

import (
	"context"
	"errors"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

type GetLeadUseCase struct {
	LeadRepo entity.LeadRepositoryInterface
}

func NewGetLeadUseCase(leadRepo entity.LeadRepositoryInterface) *GetLeadUseCase {
	return &GetLeadUseCase{LeadRepo: leadRepo}
}

// Execute returns the lead with its full status history.
func (uc *GetLeadUseCase) Execute(ctx context.Context, leadID string) (*LeadOutput, error) {
	lead, err := loadLead(ctx, uc.LeadRepo, leadID)
	if err != nil {
		return nil, err
	}
	return newLeadOutput(lead), nil
}

// History returns the status history oldest first.
func (uc *GetLeadUseCase) History(ctx context.Context, leadID string) ([]entity.StatusHistoryEntry, error) {
	if _, err := uc.Execute(ctx, leadID); err != nil {
		return nil, err
	}
	entries, err := uc.LeadRepo.History(ctx, leadID)
	if err != nil {
		return nil, databaseError("load history", err)
	}
	if entries == nil {
		entries = []entity.StatusHistoryEntry{}
	}
	return entries, nil
}

func loadLead(ctx context.Context, repo entity.LeadRepositoryInterface, id string) (*entity.Lead, error) {
	lead, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, newDomainError(CodeNotFound, "lead not found")
		}
		return nil, databaseError("find lead", err)
	}
	return lead, nil
}
