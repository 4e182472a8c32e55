package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/juju/clock"

	"github.com/xavierca1/mrk-crm/internal/entity"
	"github.com/xavierca1/mrk-crm/internal/infra/queue"
)

// TransitionLeadUseCase moves a lead one step along the pipeline.
//
// Checks run in a fixed order: the target must be a known status, the lead
// must exist, the edge must be in the pipeline table and finally the policy
// must accept the actor. The status change and its history entry are written
// by a single repository call that fails with entity.ErrStatusConflict when
// another writer got there first.
type TransitionLeadUseCase struct {
	LeadRepo entity.LeadRepositoryInterface
	Policy   TransitionPolicy
	Clock    clock.Clock
	Metrics  MetricsRecorder
	events   eventSink
}

func NewTransitionLeadUseCase(
	leadRepo entity.LeadRepositoryInterface,
	policy TransitionPolicy,
	publisher EventPublisher,
	clk clock.Clock,
	metrics MetricsRecorder,
	logger *slog.Logger,
) *TransitionLeadUseCase {
	if policy == nil {
		policy = RolePolicy{}
	}
	if clk == nil {
		clk = clock.WallClock
	}
	metrics = orNoop(metrics)
	return &TransitionLeadUseCase{
		LeadRepo: leadRepo,
		Policy:   policy,
		Clock:    clk,
		Metrics:  metrics,
		events:   eventSink{publisher: publisher, metrics: metrics, logger: orDefault(logger)},
	}
}

func (uc *TransitionLeadUseCase) Execute(ctx context.Context, input TransitionLeadInput, actor entity.User) (*LeadOutput, error) {
	target := input.ToStatus
	if !target.Known() {
		uc.Metrics.RecordTransition("", target, CodeInvalidTransition)
		return nil, newDomainError(CodeInvalidTransition, fmt.Sprintf("unknown status %q", target))
	}

	lead, err := loadLead(ctx, uc.LeadRepo, input.LeadID)
	if err != nil {
		return nil, err
	}

	from := lead.Status
	if !entity.CanTransition(from, target) {
		uc.Metrics.RecordTransition(from, target, CodeInvalidTransition)
		return nil, newDomainError(CodeInvalidTransition, fmt.Sprintf("cannot move lead from %s to %s", from, target))
	}
	if !uc.Policy.CanTransition(actor, from, target) {
		uc.Metrics.RecordTransition(from, target, CodeUnauthorized)
		return nil, newDomainError(CodeUnauthorized, fmt.Sprintf("%s may not move leads to %s", actor.Role, target))
	}

	entry := entity.NewStatusHistoryEntry(lead.ID, &from, target, actor.ID, uc.Clock.Now())
	updated, err := uc.LeadRepo.Transition(ctx, lead.ID, from, entry)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrStatusConflict):
			uc.Metrics.RecordTransition(from, target, CodeConcurrentModification)
			return nil, newDomainError(CodeConcurrentModification, "lead status changed, refetch and retry")
		case errors.Is(err, entity.ErrInvalidEdge):
			uc.Metrics.RecordTransition(from, target, CodeInvalidTransition)
			return nil, newDomainError(CodeInvalidTransition, fmt.Sprintf("cannot move lead from %s to %s", from, target))
		case errors.Is(err, entity.ErrNotFound):
			return nil, newDomainError(CodeNotFound, "lead not found")
		}
		return nil, databaseError("transition lead", err)
	}
	uc.Metrics.RecordTransition(from, target, "ok")

	event := queue.LeadEvent{
		Type:       queue.EventLeadStatusChanged,
		LeadID:     updated.ID,
		FromStatus: from.String(),
		ToStatus:   target.String(),
		ActorID:    actor.ID,
		OccurredAt: entry.ChangedAt,
	}
	if updated.CloserID != nil {
		event.CloserID = *updated.CloserID
	}
	uc.events.emit(ctx, event)

	return newLeadOutput(updated), nil
}
