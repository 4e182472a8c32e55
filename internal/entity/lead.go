package entity

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	// ErrStatusConflict is returned by Transition when the persisted status
	// no longer matches the status the caller validated against.
	ErrStatusConflict = errors.New("lead status changed concurrently")
	// ErrInvalidEdge is returned by Transition when the move is not in the
	// pipeline table for the locked status.
	ErrInvalidEdge = errors.New("transition not in pipeline table")
)

type LeadSource string

const (
	LeadSourceMetaForm    LeadSource = "meta_form"
	LeadSourceLandingPage LeadSource = "landing_page"
	LeadSourceManual      LeadSource = "manual"
)

func (s LeadSource) Valid() bool {
	switch s {
	case LeadSourceMetaForm, LeadSourceLandingPage, LeadSourceManual:
		return true
	}
	return false
}

type LeadTemperature string

const (
	TemperatureHot  LeadTemperature = "hot"
	TemperatureWarm LeadTemperature = "warm"
	TemperatureCold LeadTemperature = "cold"
)

func (t LeadTemperature) Valid() bool {
	switch t {
	case TemperatureHot, TemperatureWarm, TemperatureCold:
		return true
	}
	return false
}

// Qualification holds the answers collected by the WhatsApp bot or typed in
// by a qualifier. Every field is optional.
type Qualification struct {
	StartTimeline        *string  `json:"start_timeline"`
	PlansStatus          *string  `json:"plans_status"`
	PermitStatus         *string  `json:"permit_status"`
	BuildingType         *string  `json:"building_type"`
	SiteAccess           *string  `json:"site_access"`
	EstimatedSizeBucket  *string  `json:"estimated_size_bucket"`
	IsOccupied           *string  `json:"is_occupied"`
	MamadVariant         *string  `json:"mamad_variant"`
	PrivateStage         *string  `json:"private_stage"`
	PrivateSpecialStruct []string `json:"private_special_struct"`
	ArchService          *string  `json:"arch_service"`
	ArchPropertyType     *string  `json:"arch_property_type"`
	ArchPlanningStage    *string  `json:"arch_planning_stage"`
	ArchExistingDocs     []string `json:"arch_existing_docs"`
	RenoType             *string  `json:"reno_type"`
	RenoHasPlan          *string  `json:"reno_has_plan"`
}

type Lead struct {
	ID              string           `json:"id"`
	ProjectTypeID   int              `json:"project_type_id"`
	FullName        string           `json:"full_name"`
	Phone           string           `json:"phone"`
	NormalizedPhone string           `json:"normalized_phone"`
	Email           *string          `json:"email"`
	Source          LeadSource       `json:"source"`
	CampaignName    *string          `json:"campaign_name"`
	AdsetName       *string          `json:"adset_name"`
	AdName          *string          `json:"ad_name"`
	City            *string          `json:"city"`
	Street          *string          `json:"street"`
	Temperature     *LeadTemperature `json:"temperature"`
	Status          LeadStatus       `json:"status"`
	QualifierID     *string          `json:"qualifier_id"`
	CloserID        *string          `json:"closer_id"`
	BotPayload      json.RawMessage  `json:"bot_payload,omitempty"`
	BotTrack        *string          `json:"bot_track"`
	BotCompleted    bool             `json:"bot_completed"`
	Qualification

	// StatusHistory is append-only and ordered oldest first.
	StatusHistory []StatusHistoryEntry `json:"status_history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusHistoryEntry is written once per successful transition and never
// changed afterwards. An empty ChangedBy marks a system-originated entry.
type StatusHistoryEntry struct {
	ID         int64       `json:"id"`
	LeadID     string      `json:"lead_id"`
	FromStatus *LeadStatus `json:"from_status"`
	ToStatus   LeadStatus  `json:"to_status"`
	ChangedBy  string      `json:"changed_by,omitempty"`
	ChangedAt  time.Time   `json:"changed_at"`
}

// NewStatusHistoryEntry builds the record for a from -> to move.
func NewStatusHistoryEntry(leadID string, from *LeadStatus, to LeadStatus, changedBy string, at time.Time) StatusHistoryEntry {
	return StatusHistoryEntry{
		LeadID:     leadID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  changedBy,
		ChangedAt:  at,
	}
}

// CurrentStatusConsistent reports whether Status matches the latest history entry.
func (l *Lead) CurrentStatusConsistent() bool {
	if len(l.StatusHistory) == 0 {
		return true
	}
	return l.StatusHistory[len(l.StatusHistory)-1].ToStatus == l.Status
}

type LeadFilter struct {
	ProjectTypeID *int
	Status        *LeadStatus
	AssigneeID    *string
	Search        string
	// SearchPhone, when set, replaces the e-mail match with a match on the
	// normalized phone.
	SearchPhone  string
	BotCompleted *bool
	Temperature  *LeadTemperature
	Source       *LeadSource
	Scope        LeadScope
	Page         int
	PageSize     int
}

// LeadScope restricts which leads a role may list.
type LeadScope struct {
	// CloserID limits results to leads assigned to this closer.
	CloserID *string
	// QualifierID limits results to unassigned leads, leads qualified by
	// this user, and leads still at new_lead.
	QualifierID *string
}

// Allows reports whether lead falls inside the scope.
func (s LeadScope) Allows(lead *Lead) bool {
	if s.CloserID != nil && (lead.CloserID == nil || *lead.CloserID != *s.CloserID) {
		return false
	}
	if s.QualifierID != nil {
		return lead.Status == StatusNewLead ||
			lead.QualifierID == nil ||
			*lead.QualifierID == *s.QualifierID
	}
	return true
}

type LeadRepositoryInterface interface {
	// Create persists the lead together with its initial history entry.
	Create(ctx context.Context, lead *Lead, changedBy string) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]Lead, int, error)
	// Update writes the named editable fields plus updated_at. Other columns,
	// status included, keep whatever is stored.
	Update(ctx context.Context, lead *Lead, fields []string) error
	// AssignCloser sets the closer and fills the qualifier only when it is
	// still empty.
	AssignCloser(ctx context.Context, leadID, closerID, qualifierID string, at time.Time) error
	// Transition atomically re-reads the current status, checks it equals
	// expected and that the edge is in the pipeline table, sets the new status
	// and appends the history entry.
	Transition(ctx context.Context, leadID string, expected LeadStatus, entry StatusHistoryEntry) (*Lead, error)
	History(ctx context.Context, leadID string) ([]StatusHistoryEntry, error)
	FindRecentByPhone(ctx context.Context, normalizedPhone string, projectTypeID *int, since time.Time) (*Lead, error)
}
