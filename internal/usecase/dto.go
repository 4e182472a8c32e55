package usecase

import (
	"github.com/google/uuid"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

type CreateLeadInput struct {
	ProjectTypeID int                     `json:"project_type_id"`
	FullName      string                  `json:"full_name"`
	Phone         string                  `json:"phone"`
	Email         *string                 `json:"email"`
	Source        entity.LeadSource       `json:"source"`
	CampaignName  *string                 `json:"campaign_name"`
	AdsetName     *string                 `json:"adset_name"`
	AdName        *string                 `json:"ad_name"`
	City          *string                 `json:"city"`
	Street        *string                 `json:"street"`
	Temperature   *entity.LeadTemperature `json:"temperature"`
}

// UpdateLeadInput carries a partial update. Status is deliberately absent:
// it only changes through TransitionLeadUseCase.
type UpdateLeadInput struct {
	LeadID               string                  `json:"-"`
	FullName             *string                 `json:"full_name"`
	Phone                *string                 `json:"phone"`
	Email                *string                 `json:"email"`
	City                 *string                 `json:"city"`
	Street               *string                 `json:"street"`
	Temperature          *entity.LeadTemperature `json:"temperature"`
	QualifierID          *string                 `json:"qualifier_id"`
	CloserID             *string                 `json:"closer_id"`
	StartTimeline        *string                 `json:"start_timeline"`
	PlansStatus          *string                 `json:"plans_status"`
	PermitStatus         *string                 `json:"permit_status"`
	BuildingType         *string                 `json:"building_type"`
	SiteAccess           *string                 `json:"site_access"`
	EstimatedSizeBucket  *string                 `json:"estimated_size_bucket"`
	IsOccupied           *string                 `json:"is_occupied"`
	MamadVariant         *string                 `json:"mamad_variant"`
	PrivateStage         *string                 `json:"private_stage"`
	PrivateSpecialStruct *[]string               `json:"private_special_struct"`
	ArchService          *string                 `json:"arch_service"`
	ArchPropertyType     *string                 `json:"arch_property_type"`
	ArchPlanningStage    *string                 `json:"arch_planning_stage"`
	ArchExistingDocs     *[]string               `json:"arch_existing_docs"`
	RenoType             *string                 `json:"reno_type"`
	RenoHasPlan          *string                 `json:"reno_has_plan"`
}

type TransitionLeadInput struct {
	LeadID   string            `json:"-"`
	ToStatus entity.LeadStatus `json:"to_status"`
}

type AssignCloserInput struct {
	LeadID   string `json:"-"`
	CloserID string `json:"closer_id"`
}

type ListLeadsInput struct {
	ProjectTypeKey string
	Status         string
	Assignee       string
	Search         string
	BotCompleted   *bool
	Temperature    string
	Source         string
	Page           int
	PageSize       int
}

// LeadOutput is a lead plus the statuses its current status may move to.
type LeadOutput struct {
	*entity.Lead
	AllowedTransitions []entity.LeadStatus `json:"allowed_transitions"`
}

func newLeadOutput(lead *entity.Lead) *LeadOutput {
	return &LeadOutput{
		Lead:               lead,
		AllowedTransitions: entity.AllowedNextStates(lead.Status),
	}
}

type LeadListOutput struct {
	Items    []LeadOutput `json:"items"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Pages    int          `json:"pages"`
}

type CreateActivityInput struct {
	LeadID      string              `json:"-"`
	Type        entity.ActivityType `json:"type"`
	Description *string             `json:"description"`
}

type CreateOfferInput struct {
	LeadID          string             `json:"-"`
	Status          entity.OfferStatus `json:"status"`
	AmountEstimated *float64           `json:"amount_estimated"`
	DocumentURL     *string            `json:"document_url"`
}

type UpdateOfferInput struct {
	OfferID         string              `json:"-"`
	Status          *entity.OfferStatus `json:"status"`
	AmountEstimated *float64            `json:"amount_estimated"`
	DocumentURL     *string             `json:"document_url"`
}

type CreateUserInput struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     entity.UserRole `json:"role"`
}

type UpdateUserInput struct {
	UserID   string           `json:"-"`
	Name     *string          `json:"name"`
	Email    *string          `json:"email"`
	Role     *entity.UserRole `json:"role"`
	IsActive *bool            `json:"is_active"`
	Password *string          `json:"password"`
}

type CreateCampaignMappingInput struct {
	ContainsText   string `json:"contains_text"`
	ProjectTypeKey string `json:"project_type_key"`
	Priority       *int   `json:"priority"`
}

type UpdateCampaignMappingInput struct {
	MappingID      string  `json:"-"`
	ContainsText   *string `json:"contains_text"`
	ProjectTypeKey *string `json:"project_type_key"`
	Priority       *int    `json:"priority"`
	IsActive       *bool   `json:"is_active"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"-"`
	TokenType    string `json:"token_type"`
}

// WebhookOutput tells the sender whether the call created or updated a lead.
type WebhookOutput struct {
	Status string `json:"status"`
	LeadID string `json:"lead_id"`
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
