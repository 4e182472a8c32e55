package entity

import (
	"context"
	"time"
)

type ActivityType string

const (
	ActivityCall      ActivityType = "call"
	ActivityMeeting   ActivityType = "meeting"
	ActivityNote      ActivityType = "note"
	ActivityOfferSent ActivityType = "offer_sent"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityCall, ActivityMeeting, ActivityNote, ActivityOfferSent:
		return true
	}
	return false
}

type Activity struct {
	ID          string       `json:"id"`
	LeadID      string       `json:"lead_id"`
	Type        ActivityType `json:"type"`
	Description *string      `json:"description"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
}

type ActivityRepositoryInterface interface {
	Create(ctx context.Context, a *Activity) error
	// ListByLead returns newest first.
	ListByLead(ctx context.Context, leadID string) ([]Activity, error)
}
