package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/juju/clock"

	"github.com/xavierca1/mrk-crm/internal/entity"
	"github.com/xavierca1/mrk-crm/internal/infra/queue"
)

type AssignCloserUseCase struct {
	LeadRepo entity.LeadRepositoryInterface
	UserRepo entity.UserRepositoryInterface
	Clock    clock.Clock
	events   eventSink
}

func NewAssignCloserUseCase(
	leadRepo entity.LeadRepositoryInterface,
	userRepo entity.UserRepositoryInterface,
	publisher EventPublisher,
	clk clock.Clock,
	metrics MetricsRecorder,
	logger *slog.Logger,
) *AssignCloserUseCase {
	if clk == nil {
		clk = clock.WallClock
	}
	return &AssignCloserUseCase{
		LeadRepo: leadRepo,
		UserRepo: userRepo,
		Clock:    clk,
		events:   eventSink{publisher: publisher, metrics: orNoop(metrics), logger: orDefault(logger)},
	}
}

// Execute hands the lead to a closer. The acting qualifier becomes the
// lead's qualifier if it has none yet. Status is left alone.
func (uc *AssignCloserUseCase) Execute(ctx context.Context, input AssignCloserInput, actor entity.User) (*LeadOutput, error) {
	if !canAssignCloser(actor) {
		return nil, newDomainError(CodeUnauthorized, "only admins and qualifiers may assign closers")
	}

	lead, err := loadLead(ctx, uc.LeadRepo, input.LeadID)
	if err != nil {
		return nil, err
	}

	if !isUUID(input.CloserID) {
		return nil, ValidationErrors{{"closer_id", "must be a valid id"}}
	}
	closer, err := uc.UserRepo.FindByID(ctx, input.CloserID)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return nil, databaseError("find closer", err)
	}
	if closer == nil || closer.Role != entity.RoleCloser {
		return nil, newDomainError(CodeNotFound, "closer not found")
	}

	now := uc.Clock.Now()
	if err := uc.LeadRepo.AssignCloser(ctx, lead.ID, closer.ID, actor.ID, now); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, newDomainError(CodeNotFound, "lead not found")
		}
		return nil, databaseError("assign closer", err)
	}

	uc.events.emit(ctx, queue.LeadEvent{
		Type:       queue.EventLeadCloserAssigned,
		LeadID:     lead.ID,
		CloserID:   closer.ID,
		ActorID:    actor.ID,
		OccurredAt: now,
	})

	// The row may have moved on since it was loaded; answer with what is
	// stored now so status and history agree.
	fresh, err := loadLead(ctx, uc.LeadRepo, lead.ID)
	if err != nil {
		return nil, err
	}
	return newLeadOutput(fresh), nil
}
