package entity

import (
	"context"
	"time"
)

type OfferStatus string

const (
	OfferDraft       OfferStatus = "draft"
	OfferSent        OfferStatus = "sent"
	OfferNegotiation OfferStatus = "negotiation"
	OfferApproved    OfferStatus = "approved"
	OfferRejected    OfferStatus = "rejected"
)

func (s OfferStatus) Valid() bool {
	switch s {
	case OfferDraft, OfferSent, OfferNegotiation, OfferApproved, OfferRejected:
		return true
	}
	return false
}

// Offer is the price quote metadata for a lead. The document itself lives
// outside this service; DocumentURL only points at it.
type Offer struct {
	ID              string      `json:"id"`
	LeadID          string      `json:"lead_id"`
	DocumentURL     *string     `json:"document_url"`
	AmountEstimated *float64    `json:"amount_estimated"`
	Status          OfferStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type OfferRepositoryInterface interface {
	Create(ctx context.Context, o *Offer) error
	FindByID(ctx context.Context, id string) (*Offer, error)
	ListByLead(ctx context.Context, leadID string) ([]Offer, error)
	Update(ctx context.Context, o *Offer) error
}
