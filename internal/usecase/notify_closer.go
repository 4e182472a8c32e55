package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xavierca1/mrk-crm/internal/entity"
	"github.com/xavierca1/mrk-crm/internal/infra/mail"
	"github.com/xavierca1/mrk-crm/internal/infra/queue"
)

// NotifyCloserUseCase consumes lead events and e-mails the lead's closer.
// Events that no longer point at an active closer are dropped silently.
type NotifyCloserUseCase struct {
	LeadRepo entity.LeadRepositoryInterface
	UserRepo entity.UserRepositoryInterface
	Notifier Notifier
	Metrics  MetricsRecorder
	Logger   *slog.Logger
}

func NewNotifyCloserUseCase(
	leadRepo entity.LeadRepositoryInterface,
	userRepo entity.UserRepositoryInterface,
	notifier Notifier,
	metrics MetricsRecorder,
	logger *slog.Logger,
) *NotifyCloserUseCase {
	return &NotifyCloserUseCase{
		LeadRepo: leadRepo,
		UserRepo: userRepo,
		Notifier: notifier,
		Metrics:  orNoop(metrics),
		Logger:   orDefault(logger),
	}
}

func (uc *NotifyCloserUseCase) HandleLeadEvent(ctx context.Context, event queue.LeadEvent) error {
	switch event.Type {
	case queue.EventLeadStatusChanged, queue.EventLeadCloserAssigned:
	default:
		return nil
	}
	if event.CloserID == "" || uc.Notifier == nil {
		return nil
	}

	closer, err := uc.UserRepo.FindByID(ctx, event.CloserID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			uc.Logger.Warn("closer of lead event not found", "closer_id", event.CloserID)
			return nil
		}
		return err
	}
	if !closer.IsActive {
		return nil
	}

	lead, err := uc.LeadRepo.FindByID(ctx, event.LeadID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil
		}
		return err
	}

	n := mail.CloserNotification{
		CloserName: closer.Name,
		LeadID:     lead.ID,
		LeadName:   lead.FullName,
		LeadPhone:  lead.Phone,
		Status:     event.ToStatus,
		Assigned:   event.Type == queue.EventLeadCloserAssigned,
	}
	if n.Status == "" {
		n.Status = lead.Status.String()
	}

	if err := uc.Notifier.NotifyCloser(closer.Email, n); err != nil {
		uc.Metrics.RecordIntegrationError("smtp")
		return err
	}
	uc.Logger.Info("closer notified", "lead_id", lead.ID, "closer_id", closer.ID, "type", event.Type)
	return nil
}
