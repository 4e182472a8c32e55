package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/xavierca1/mrk-crm/internal/entity"
	"github.com/xavierca1/mrk-crm/internal/infra/queue"
)

const (
	DefaultDedupWindow = 30 * 24 * time.Hour

	defaultMetaLeadName = "ליד מטא"
	defaultBotLeadName  = "ליד בוט"

	WebhookCreated = "created"
	WebhookUpdated = "updated"

	// fallbackProjectTypeID is renovation in the seeded table.
	fallbackProjectTypeID = 3
)

// IngestLeadUseCase turns inbound webhook payloads into leads. It never
// moves an existing lead along the pipeline; history entries it writes carry
// no user.
type IngestLeadUseCase struct {
	LeadRepo        entity.LeadRepositoryInterface
	ProjectTypeRepo entity.ProjectTypeRepositoryInterface
	Campaigns       *CampaignMappingUseCase
	Clock           clock.Clock
	DedupWindow     time.Duration
	Metrics         MetricsRecorder
	events          eventSink
}

func NewIngestLeadUseCase(
	leadRepo entity.LeadRepositoryInterface,
	projectTypeRepo entity.ProjectTypeRepositoryInterface,
	campaigns *CampaignMappingUseCase,
	publisher EventPublisher,
	clk clock.Clock,
	dedupWindow time.Duration,
	metrics MetricsRecorder,
	logger *slog.Logger,
) *IngestLeadUseCase {
	if clk == nil {
		clk = clock.WallClock
	}
	if dedupWindow <= 0 {
		dedupWindow = DefaultDedupWindow
	}
	metrics = orNoop(metrics)
	return &IngestLeadUseCase{
		LeadRepo:        leadRepo,
		ProjectTypeRepo: projectTypeRepo,
		Campaigns:       campaigns,
		Clock:           clk,
		DedupWindow:     dedupWindow,
		Metrics:         metrics,
		events:          eventSink{publisher: publisher, metrics: metrics, logger: orDefault(logger)},
	}
}

// IngestMeta handles a Meta lead form submission. A lead with the same
// phone and project type created inside the dedup window is refreshed with
// the ad attribution instead of duplicated.
func (uc *IngestLeadUseCase) IngestMeta(ctx context.Context, payload map[string]any) (*WebhookOutput, error) {
	phone := stringAnswer(payload, "phone")
	if phone == "" {
		return nil, ValidationErrors{{"phone", "is required"}}
	}

	campaign := firstAnswer(payload, "campaign_name", "campaign")
	adset := firstAnswer(payload, "adset_name", "adset")
	ad := firstAnswer(payload, "ad_name", "ad")
	email := stringAnswer(payload, "email")

	key, err := uc.Campaigns.Resolve(ctx, campaign)
	if err != nil {
		return nil, err
	}
	ptID, err := uc.projectTypeID(ctx, key)
	if err != nil {
		return nil, err
	}

	now := uc.Clock.Now()
	normalized := NormalizePhone(phone)

	existing, err := uc.LeadRepo.FindRecentByPhone(ctx, normalized, &ptID, now.Add(-uc.DedupWindow))
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return nil, databaseError("find recent lead", err)
	}
	if existing != nil {
		before := *existing
		setIfNotEmpty(&existing.CampaignName, campaign)
		setIfNotEmpty(&existing.AdsetName, adset)
		setIfNotEmpty(&existing.AdName, ad)
		setIfNotEmpty(&existing.Email, email)
		existing.UpdatedAt = now
		if err := uc.LeadRepo.Update(ctx, existing, entity.ChangedLeadFields(&before, existing)); err != nil {
			return nil, databaseError("update lead", err)
		}
		uc.Metrics.RecordLeadIngested(string(entity.LeadSourceMetaForm), WebhookUpdated)
		return &WebhookOutput{Status: WebhookUpdated, LeadID: existing.ID}, nil
	}

	name := firstAnswer(payload, "full_name", "name")
	if name == "" {
		name = defaultMetaLeadName
	}
	lead := &entity.Lead{
		ID:              uuid.NewString(),
		ProjectTypeID:   ptID,
		FullName:        name,
		Phone:           phone,
		NormalizedPhone: normalized,
		Source:          entity.LeadSourceMetaForm,
		Status:          entity.StatusNewLead,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	setIfNotEmpty(&lead.CampaignName, campaign)
	setIfNotEmpty(&lead.AdsetName, adset)
	setIfNotEmpty(&lead.AdName, ad)
	setIfNotEmpty(&lead.Email, email)

	if err := uc.create(ctx, lead); err != nil {
		return nil, err
	}
	return &WebhookOutput{Status: WebhookCreated, LeadID: lead.ID}, nil
}

// IngestWhatsApp attaches a bot conversation to the most recent lead for the
// phone, or starts a new manual lead on the bot's track. raw is kept verbatim
// as the lead's bot payload.
func (uc *IngestLeadUseCase) IngestWhatsApp(ctx context.Context, payload map[string]any, raw json.RawMessage) (*WebhookOutput, error) {
	phone := stringAnswer(payload, "phone")
	if phone == "" {
		return nil, ValidationErrors{{"phone", "is required"}}
	}

	now := uc.Clock.Now()
	normalized := NormalizePhone(phone)
	track := ResolveTrack(stringAnswer(payload, "track"))

	lead, err := uc.LeadRepo.FindRecentByPhone(ctx, normalized, nil, now.Add(-uc.DedupWindow))
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return nil, databaseError("find recent lead", err)
	}

	created := lead == nil
	var before entity.Lead
	if !created {
		before = *lead
	}
	if created {
		key := track
		if key == "" {
			key = entity.DefaultProjectTypeKey
		}
		ptID, err := uc.projectTypeID(ctx, key)
		if err != nil {
			return nil, err
		}
		name := firstAnswer(payload, "full_name", "name")
		if name == "" {
			name = defaultBotLeadName
		}
		lead = &entity.Lead{
			ID:              uuid.NewString(),
			ProjectTypeID:   ptID,
			FullName:        name,
			Phone:           phone,
			NormalizedPhone: normalized,
			Source:          entity.LeadSourceManual,
			Status:          entity.StatusNewLead,
			CreatedAt:       now,
		}
	}

	lead.BotPayload = raw
	answers := payload
	if nested, ok := payload["answers"].(map[string]any); ok {
		answers = nested
	}
	if track != "" {
		applyBotAnswers(lead, track, answers)
	}
	if truthy(payload, "completed") || truthy(payload, "bot_completed") || (track != "" && len(answers) > 0) {
		lead.BotCompleted = true
	}
	lead.UpdatedAt = now

	if created {
		if err := uc.create(ctx, lead); err != nil {
			return nil, err
		}
		return &WebhookOutput{Status: WebhookCreated, LeadID: lead.ID}, nil
	}

	if err := uc.LeadRepo.Update(ctx, lead, entity.ChangedLeadFields(&before, lead)); err != nil {
		return nil, databaseError("update lead", err)
	}
	uc.Metrics.RecordLeadIngested("whatsapp", WebhookUpdated)
	return &WebhookOutput{Status: WebhookUpdated, LeadID: lead.ID}, nil
}

func (uc *IngestLeadUseCase) create(ctx context.Context, lead *entity.Lead) error {
	if err := uc.LeadRepo.Create(ctx, lead, ""); err != nil {
		return databaseError("create lead", err)
	}
	source := string(lead.Source)
	if lead.BotPayload != nil {
		source = "whatsapp"
	}
	uc.Metrics.RecordLeadIngested(source, WebhookCreated)
	uc.events.emit(ctx, queue.LeadEvent{
		Type:       queue.EventLeadCreated,
		LeadID:     lead.ID,
		ToStatus:   lead.Status.String(),
		OccurredAt: lead.CreatedAt,
	})
	return nil
}

// projectTypeID looks key up, falling back to renovation and then to its
// seeded id.
func (uc *IngestLeadUseCase) projectTypeID(ctx context.Context, key string) (int, error) {
	for _, k := range []string{key, entity.DefaultProjectTypeKey} {
		pt, err := uc.ProjectTypeRepo.FindByKey(ctx, k)
		if err == nil {
			return pt.ID, nil
		}
		if !errors.Is(err, entity.ErrNotFound) {
			return 0, databaseError("find project type", err)
		}
	}
	return fallbackProjectTypeID, nil
}

func firstAnswer(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := stringAnswer(payload, k); v != "" {
			return v
		}
	}
	return ""
}

func setIfNotEmpty(dst **string, v string) {
	if v != "" {
		*dst = &v
	}
}
