package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/juju/clock"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

// UpdateLeadUseCase applies a partial edit. It has no way to change status.
type UpdateLeadUseCase struct {
	LeadRepo entity.LeadRepositoryInterface
	UserRepo entity.UserRepositoryInterface
	Clock    clock.Clock
}

func NewUpdateLeadUseCase(leadRepo entity.LeadRepositoryInterface, userRepo entity.UserRepositoryInterface, clk clock.Clock) *UpdateLeadUseCase {
	if clk == nil {
		clk = clock.WallClock
	}
	return &UpdateLeadUseCase{LeadRepo: leadRepo, UserRepo: userRepo, Clock: clk}
}

func (uc *UpdateLeadUseCase) Execute(ctx context.Context, input UpdateLeadInput) (*LeadOutput, error) {
	if errs := ValidateUpdateLeadInput(input); len(errs) > 0 {
		return nil, errs
	}

	lead, err := loadLead(ctx, uc.LeadRepo, input.LeadID)
	if err != nil {
		return nil, err
	}

	refs := []struct {
		field string
		id    *string
	}{
		{"qualifier_id", input.QualifierID},
		{"closer_id", input.CloserID},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		if _, err := uc.UserRepo.FindByID(ctx, *ref.id); err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				return nil, ValidationErrors{{ref.field, "user does not exist"}}
			}
			return nil, databaseError("find user", err)
		}
	}

	before := *lead
	applyLeadUpdate(lead, input)
	lead.UpdatedAt = uc.Clock.Now()

	// Only the columns this request changed are written, so a concurrent
	// assignment or webhook refresh of other fields survives.
	if err := uc.LeadRepo.Update(ctx, lead, entity.ChangedLeadFields(&before, lead)); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, newDomainError(CodeNotFound, "lead not found")
		}
		return nil, databaseError("update lead", err)
	}

	fresh, err := loadLead(ctx, uc.LeadRepo, lead.ID)
	if err != nil {
		return nil, err
	}
	return newLeadOutput(fresh), nil
}

func applyLeadUpdate(lead *entity.Lead, in UpdateLeadInput) {
	if in.FullName != nil {
		lead.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		lead.Phone = *in.Phone
		lead.NormalizedPhone = NormalizePhone(*in.Phone)
	}
	setIfPresent(&lead.Email, in.Email)
	setIfPresent(&lead.City, in.City)
	setIfPresent(&lead.Street, in.Street)
	if in.Temperature != nil {
		lead.Temperature = in.Temperature
	}
	setIfPresent(&lead.QualifierID, in.QualifierID)
	setIfPresent(&lead.CloserID, in.CloserID)

	q := &lead.Qualification
	setIfPresent(&q.StartTimeline, in.StartTimeline)
	setIfPresent(&q.PlansStatus, in.PlansStatus)
	setIfPresent(&q.PermitStatus, in.PermitStatus)
	setIfPresent(&q.BuildingType, in.BuildingType)
	setIfPresent(&q.SiteAccess, in.SiteAccess)
	setIfPresent(&q.EstimatedSizeBucket, in.EstimatedSizeBucket)
	setIfPresent(&q.IsOccupied, in.IsOccupied)
	setIfPresent(&q.MamadVariant, in.MamadVariant)
	setIfPresent(&q.PrivateStage, in.PrivateStage)
	setIfPresent(&q.ArchService, in.ArchService)
	setIfPresent(&q.ArchPropertyType, in.ArchPropertyType)
	setIfPresent(&q.ArchPlanningStage, in.ArchPlanningStage)
	setIfPresent(&q.RenoType, in.RenoType)
	setIfPresent(&q.RenoHasPlan, in.RenoHasPlan)
	if in.PrivateSpecialStruct != nil {
		q.PrivateSpecialStruct = *in.PrivateSpecialStruct
	}
	if in.ArchExistingDocs != nil {
		q.ArchExistingDocs = *in.ArchExistingDocs
	}
}

func setIfPresent(dst **string, v *string) {
	if v != nil {
		s := *v
		*dst = &s
	}
}
