package usecase

import (
	"context"

	"github.com/xavierca1/mrk-crm/internal/entity"
	"github.com/xavierca1/mrk-crm/internal/infra/auth"
	"github.com/xavierca1/mrk-crm/internal/infra/mail"
	"github.com/xavierca1/mrk-crm/internal/infra/queue"
)

// TransitionPolicy decides whether a user may move a lead between two
// statuses. It is consulted only for edges that exist in the pipeline table.
type TransitionPolicy interface {
	CanTransition(user entity.User, from, to entity.LeadStatus) bool
}

type TransitionPolicyFunc func(user entity.User, from, to entity.LeadStatus) bool

func (f TransitionPolicyFunc) CanTransition(user entity.User, from, to entity.LeadStatus) bool {
	return f(user, from, to)
}

type EventPublisher interface {
	PublishLeadEvent(ctx context.Context, event queue.LeadEvent) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenIssuer interface {
	Issue(user entity.User, kind auth.TokenKind) (string, error)
	Parse(raw string) (auth.Claims, error)
}

type Notifier interface {
	NotifyCloser(to string, n mail.CloserNotification) error
}

// MetricsRecorder receives domain counters. Results are short labels such as
// "ok" or an error code.
type MetricsRecorder interface {
	RecordTransition(from, to entity.LeadStatus, result string)
	RecordLeadIngested(source, outcome string)
	RecordEventPublished(eventType, result string)
	RecordIntegrationError(service string)
}

type noopRecorder struct{}

func (noopRecorder) RecordTransition(entity.LeadStatus, entity.LeadStatus, string) {}
func (noopRecorder) RecordLeadIngested(string, string)                             {}
func (noopRecorder) RecordEventPublished(string, string)                           {}
func (noopRecorder) RecordIntegrationError(string)                                 {}
