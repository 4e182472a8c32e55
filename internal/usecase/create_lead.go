package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/xavierca1/mrk-crm/internal/entity"
	"github.com/xavierca1/mrk-crm/internal/infra/queue"
)

type CreateLeadUseCase struct {
	LeadRepo        entity.LeadRepositoryInterface
	ProjectTypeRepo entity.ProjectTypeRepositoryInterface
	Clock           clock.Clock
	events          eventSink
}

func NewCreateLeadUseCase(
	leadRepo entity.LeadRepositoryInterface,
	projectTypeRepo entity.ProjectTypeRepositoryInterface,
	publisher EventPublisher,
	clk clock.Clock,
	metrics MetricsRecorder,
	logger *slog.Logger,
) *CreateLeadUseCase {
	if clk == nil {
		clk = clock.WallClock
	}
	return &CreateLeadUseCase{
		LeadRepo:        leadRepo,
		ProjectTypeRepo: projectTypeRepo,
		Clock:           clk,
		events:          eventSink{publisher: publisher, metrics: orNoop(metrics), logger: orDefault(logger)},
	}
}

// Execute creates a lead at new_lead together with its first history entry,
// attributed to actor.
func (uc *CreateLeadUseCase) Execute(ctx context.Context, input CreateLeadInput, actor entity.User) (*LeadOutput, error) {
	if errs := ValidateCreateLeadInput(input); len(errs) > 0 {
		return nil, errs
	}

	if _, err := uc.ProjectTypeRepo.FindByID(ctx, input.ProjectTypeID); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ValidationErrors{{"project_type_id", "unknown project type"}}
		}
		return nil, databaseError("find project type", err)
	}

	source := input.Source
	if source == "" {
		source = entity.LeadSourceManual
	}

	now := uc.Clock.Now()
	lead := &entity.Lead{
		ID:              uuid.NewString(),
		ProjectTypeID:   input.ProjectTypeID,
		FullName:        strings.TrimSpace(input.FullName),
		Phone:           input.Phone,
		NormalizedPhone: NormalizePhone(input.Phone),
		Email:           input.Email,
		Source:          source,
		CampaignName:    input.CampaignName,
		AdsetName:       input.AdsetName,
		AdName:          input.AdName,
		City:            input.City,
		Street:          input.Street,
		Temperature:     input.Temperature,
		Status:          entity.StatusNewLead,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.LeadRepo.Create(ctx, lead, actor.ID); err != nil {
		return nil, databaseError("create lead", err)
	}

	uc.events.emit(ctx, queue.LeadEvent{
		Type:       queue.EventLeadCreated,
		LeadID:     lead.ID,
		ToStatus:   lead.Status.String(),
		ActorID:    actor.ID,
		OccurredAt: now,
	})

	return newLeadOutput(lead), nil
}
