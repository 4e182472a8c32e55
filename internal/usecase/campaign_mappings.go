package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

const defaultMappingPriority = 100

type CampaignMappingUseCase struct {
	MappingRepo entity.CampaignMappingRepositoryInterface
	Clock       clock.Clock
}

func NewCampaignMappingUseCase(repo entity.CampaignMappingRepositoryInterface, clk clock.Clock) *CampaignMappingUseCase {
	if clk == nil {
		clk = clock.WallClock
	}
	return &CampaignMappingUseCase{MappingRepo: repo, Clock: clk}
}

func (uc *CampaignMappingUseCase) List(ctx context.Context, actor entity.User) ([]entity.CampaignMapping, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	mappings, err := uc.MappingRepo.ListActive(ctx)
	if err != nil {
		return nil, databaseError("list campaign mappings", err)
	}
	if mappings == nil {
		mappings = []entity.CampaignMapping{}
	}
	return mappings, nil
}

func (uc *CampaignMappingUseCase) Create(ctx context.Context, input CreateCampaignMappingInput, actor entity.User) (*entity.CampaignMapping, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	priority := defaultMappingPriority
	if input.Priority != nil {
		priority = *input.Priority
	}
	if errs := ValidateCampaignMapping(&input.ContainsText, &input.ProjectTypeKey, &priority); len(errs) > 0 {
		return nil, errs
	}

	m := &entity.CampaignMapping{
		ID:             uuid.NewString(),
		ContainsText:   strings.TrimSpace(input.ContainsText),
		ProjectTypeKey: input.ProjectTypeKey,
		Priority:       priority,
		IsActive:       true,
		CreatedAt:      uc.Clock.Now(),
	}
	if err := uc.MappingRepo.Create(ctx, m); err != nil {
		return nil, databaseError("create campaign mapping", err)
	}
	return m, nil
}

func (uc *CampaignMappingUseCase) Update(ctx context.Context, input UpdateCampaignMappingInput, actor entity.User) (*entity.CampaignMapping, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if errs := ValidateCampaignMapping(input.ContainsText, input.ProjectTypeKey, input.Priority); len(errs) > 0 {
		return nil, errs
	}

	m, err := uc.find(ctx, input.MappingID)
	if err != nil {
		return nil, err
	}
	if input.ContainsText != nil {
		m.ContainsText = strings.TrimSpace(*input.ContainsText)
	}
	if input.ProjectTypeKey != nil {
		m.ProjectTypeKey = *input.ProjectTypeKey
	}
	if input.Priority != nil {
		m.Priority = *input.Priority
	}
	if input.IsActive != nil {
		m.IsActive = *input.IsActive
	}

	if err := uc.MappingRepo.Update(ctx, m); err != nil {
		return nil, databaseError("update campaign mapping", err)
	}
	return m, nil
}

// Deactivate is the delete operation: mappings are switched off, never removed.
func (uc *CampaignMappingUseCase) Deactivate(ctx context.Context, id string, actor entity.User) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	m, err := uc.find(ctx, id)
	if err != nil {
		return err
	}
	m.IsActive = false
	if err := uc.MappingRepo.Update(ctx, m); err != nil {
		return databaseError("deactivate campaign mapping", err)
	}
	return nil
}

// Resolve returns the project type key for a campaign name: the first active
// mapping, by ascending priority, whose text appears in the name ignoring
// case. Without a match the default project type is returned.
func (uc *CampaignMappingUseCase) Resolve(ctx context.Context, campaignName string) (string, error) {
	if campaignName == "" {
		return entity.DefaultProjectTypeKey, nil
	}
	mappings, err := uc.MappingRepo.ListActive(ctx)
	if err != nil {
		return "", databaseError("list campaign mappings", err)
	}
	return matchCampaign(mappings, campaignName), nil
}

func matchCampaign(mappings []entity.CampaignMapping, campaignName string) string {
	name := strings.ToLower(campaignName)
	for _, m := range mappings {
		if m.IsActive && strings.Contains(name, strings.ToLower(m.ContainsText)) {
			return m.ProjectTypeKey
		}
	}
	return entity.DefaultProjectTypeKey
}

func (uc *CampaignMappingUseCase) find(ctx context.Context, id string) (*entity.CampaignMapping, error) {
	m, err := uc.MappingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, newDomainError(CodeNotFound, "campaign mapping not found")
		}
		return nil, databaseError("find campaign mapping", err)
	}
	return m, nil
}
