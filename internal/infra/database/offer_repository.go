package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

const selectOffer = "SELECT id, lead_id, document_url, amount_estimated, status, created_at, updated_at FROM offers"

type OfferRepository struct {
	DB *sql.DB
}

func NewOfferRepository(db *sql.DB) *OfferRepository {
	return &OfferRepository{DB: db}
}

func (r *OfferRepository) Create(ctx context.Context, o *entity.Offer) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO offers (id, lead_id, document_url, amount_estimated, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.LeadID, o.DocumentURL, o.AmountEstimated, string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	return translate(err)
}

func (r *OfferRepository) FindByID(ctx context.Context, id string) (*entity.Offer, error) {
	if !validID(id) {
		return nil, entity.ErrNotFound
	}
	o, err := scanOffer(r.DB.QueryRowContext(ctx, selectOffer+" WHERE id = $1", id))
	return o, translate(err)
}

func (r *OfferRepository) ListByLead(ctx context.Context, leadID string) ([]entity.Offer, error) {
	if !validID(leadID) {
		return nil, nil
	}
	rows, err := r.DB.QueryContext(ctx, selectOffer+" WHERE lead_id = $1 ORDER BY created_at DESC, id DESC", leadID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var out []entity.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *OfferRepository) Update(ctx context.Context, o *entity.Offer) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE offers
		SET document_url = $2, amount_estimated = $3, status = $4, updated_at = $5
		WHERE id = $1`,
		o.ID, o.DocumentURL, o.AmountEstimated, string(o.Status), o.UpdatedAt,
	)
	if err != nil {
		return translate(err)
	}
	return expectOneRow(res)
}

func scanOffer(row rowScanner) (*entity.Offer, error) {
	var (
		o      entity.Offer
		doc    sql.NullString
		amount sql.NullFloat64
		status string
	)
	if err := row.Scan(&o.ID, &o.LeadID, &doc, &amount, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.DocumentURL = fromNull(doc)
	if amount.Valid {
		v := amount.Float64
		o.AmountEstimated = &v
	}
	o.Status = entity.OfferStatus(status)
	return &o, nil
}
