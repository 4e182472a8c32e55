package usecase

import (
	"context"
	"errors"
	"net/url"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

// OfferUseCase tracks quote metadata. Documents are hosted elsewhere and
// referenced by URL only.
type OfferUseCase struct {
	LeadRepo  entity.LeadRepositoryInterface
	OfferRepo entity.OfferRepositoryInterface
	Clock     clock.Clock
}

func NewOfferUseCase(leadRepo entity.LeadRepositoryInterface, offerRepo entity.OfferRepositoryInterface, clk clock.Clock) *OfferUseCase {
	if clk == nil {
		clk = clock.WallClock
	}
	return &OfferUseCase{LeadRepo: leadRepo, OfferRepo: offerRepo, Clock: clk}
}

func (uc *OfferUseCase) List(ctx context.Context, leadID string) ([]entity.Offer, error) {
	if _, err := loadLead(ctx, uc.LeadRepo, leadID); err != nil {
		return nil, err
	}
	offers, err := uc.OfferRepo.ListByLead(ctx, leadID)
	if err != nil {
		return nil, databaseError("list offers", err)
	}
	if offers == nil {
		offers = []entity.Offer{}
	}
	return offers, nil
}

func (uc *OfferUseCase) Create(ctx context.Context, input CreateOfferInput) (*entity.Offer, error) {
	if input.Status == "" {
		input.Status = entity.OfferDraft
	}
	if errs := validateOffer(&input.Status, input.AmountEstimated, input.DocumentURL); len(errs) > 0 {
		return nil, errs
	}
	if _, err := loadLead(ctx, uc.LeadRepo, input.LeadID); err != nil {
		return nil, err
	}

	now := uc.Clock.Now()
	o := &entity.Offer{
		ID:              uuid.NewString(),
		LeadID:          input.LeadID,
		DocumentURL:     input.DocumentURL,
		AmountEstimated: input.AmountEstimated,
		Status:          input.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.OfferRepo.Create(ctx, o); err != nil {
		return nil, databaseError("create offer", err)
	}
	return o, nil
}

func (uc *OfferUseCase) Update(ctx context.Context, input UpdateOfferInput) (*entity.Offer, error) {
	if errs := validateOffer(input.Status, input.AmountEstimated, input.DocumentURL); len(errs) > 0 {
		return nil, errs
	}

	o, err := uc.OfferRepo.FindByID(ctx, input.OfferID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, newDomainError(CodeNotFound, "offer not found")
		}
		return nil, databaseError("find offer", err)
	}

	if input.Status != nil {
		o.Status = *input.Status
	}
	if input.AmountEstimated != nil {
		o.AmountEstimated = input.AmountEstimated
	}
	if input.DocumentURL != nil {
		o.DocumentURL = input.DocumentURL
	}
	o.UpdatedAt = uc.Clock.Now()

	if err := uc.OfferRepo.Update(ctx, o); err != nil {
		return nil, databaseError("update offer", err)
	}
	return o, nil
}

func validateOffer(status *entity.OfferStatus, amount *float64, documentURL *string) ValidationErrors {
	var errs ValidationErrors
	if status != nil && !status.Valid() {
		errs = append(errs, ValidationError{"status", "must be draft, sent, negotiation, approved or rejected"})
	}
	if amount != nil && *amount < 0 {
		errs = append(errs, ValidationError{"amount_estimated", "must not be negative"})
	}
	if documentURL != nil {
		u, err := url.Parse(*documentURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{"document_url", "must be an http(s) URL"})
		}
	}
	return errs
}
