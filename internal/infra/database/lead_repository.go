package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

var leadColumns = []string{
	"id", "project_type_id", "full_name", "phone", "normalized_phone", "email", "source",
	"campaign_name", "adset_name", "ad_name", "city", "street", "temperature", "status",
	"qualifier_id", "closer_id", "bot_payload", "bot_track", "bot_completed",
	"start_timeline", "plans_status", "permit_status", "building_type", "site_access",
	"estimated_size_bucket", "is_occupied", "mamad_variant", "private_stage", "private_special_struct",
	"arch_service", "arch_property_type", "arch_planning_stage", "arch_existing_docs",
	"reno_type", "reno_has_plan", "created_at", "updated_at",
}

var (
	selectLead = "SELECT " + strings.Join(leadColumns, ", ") + " FROM leads"
	insertLead = "INSERT INTO leads (" + strings.Join(leadColumns, ", ") + ") VALUES (" + placeholders(1, len(leadColumns)) + ")"
)

const assignCloser = `
	UPDATE leads
	SET closer_id = $2, qualifier_id = COALESCE(qualifier_id, $3), updated_at = $4
	WHERE id = $1`

const insertHistory = `
	INSERT INTO lead_status_history (lead_id, from_status, to_status, changed_by, changed_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id`

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

// Create inserts the lead and its first history entry in one transaction.
func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead, changedBy string) error {
	values, err := leadValues(lead)
	if err != nil {
		return err
	}
	entry := entity.NewStatusHistoryEntry(lead.ID, nil, lead.Status, changedBy, lead.CreatedAt)

	err = withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertLead, values...); err != nil {
			return fmt.Errorf("insert lead: %w", translate(err))
		}
		return appendHistory(ctx, tx, &entry)
	})
	if err != nil {
		return err
	}
	lead.StatusHistory = []entity.StatusHistoryEntry{entry}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	if !validID(id) {
		return nil, entity.ErrNotFound
	}
	lead, err := scanLead(r.DB.QueryRowContext(ctx, selectLead+" WHERE id = $1", id))
	if err != nil {
		return nil, translate(err)
	}
	lead.StatusHistory, err = r.History(ctx, id)
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *LeadRepository) List(ctx context.Context, f entity.LeadFilter) ([]entity.Lead, int, error) {
	where, args := buildLeadFilter(f)

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf("%s%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", selectLead, where, n+1, n+2)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, *lead)
	}
	return leads, total, rows.Err()
}

// Update writes every editable column. status and created_at are not part
// of the statement.
// Update writes only the named columns and updated_at, so writers touching
// different fields of the same lead do not overwrite each other.
func (r *LeadRepository) Update(ctx context.Context, lead *entity.Lead, fields []string) error {
	if !validID(lead.ID) {
		return entity.ErrNotFound
	}
	values, err := leadValues(lead)
	if err != nil {
		return err
	}
	query, args, err := buildUpdateLead(fields, values)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err)
	}
	return expectOneRow(res)
}

func (r *LeadRepository) AssignCloser(ctx context.Context, leadID, closerID, qualifierID string, at time.Time) error {
	if !validID(leadID) {
		return entity.ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, assignCloser, leadID, closerID, qualifierID, at)
	if err != nil {
		return translate(err)
	}
	return expectOneRow(res)
}

// Transition locks the row, re-checks the status and the edge, then writes
// the new status and the history entry before releasing the lock.
func (r *LeadRepository) Transition(ctx context.Context, leadID string, expected entity.LeadStatus, entry entity.StatusHistoryEntry) (*entity.Lead, error) {
	if !validID(leadID) {
		return nil, entity.ErrNotFound
	}

	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, "SELECT status FROM leads WHERE id = $1 FOR UPDATE", leadID).Scan(&current)
		if err != nil {
			return translate(err)
		}
		from := entity.LeadStatus(current)
		if from != expected {
			return fmt.Errorf("%w: expected %s, found %s", entity.ErrStatusConflict, expected, from)
		}
		if !entity.CanTransition(from, entry.ToStatus) {
			return fmt.Errorf("%w: %s -> %s", entity.ErrInvalidEdge, from, entry.ToStatus)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE leads SET status = $2, updated_at = $3 WHERE id = $1",
			leadID, string(entry.ToStatus), entry.ChangedAt,
		); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		entry.LeadID = leadID
		entry.FromStatus = &from
		return appendHistory(ctx, tx, &entry)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, leadID)
}

func (r *LeadRepository) History(ctx context.Context, leadID string) ([]entity.StatusHistoryEntry, error) {
	if !validID(leadID) {
		return nil, entity.ErrNotFound
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, lead_id, from_status, to_status, changed_by, changed_at
		FROM lead_status_history
		WHERE lead_id = $1
		ORDER BY id`, leadID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var entries []entity.StatusHistoryEntry
	for rows.Next() {
		var (
			e         entity.StatusHistoryEntry
			from      sql.NullString
			to        string
			changedBy sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.LeadID, &from, &to, &changedBy, &e.ChangedAt); err != nil {
			return nil, err
		}
		if from.Valid {
			s := entity.LeadStatus(from.String)
			e.FromStatus = &s
		}
		e.ToStatus = entity.LeadStatus(to)
		e.ChangedBy = changedBy.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *LeadRepository) FindRecentByPhone(ctx context.Context, normalizedPhone string, projectTypeID *int, since time.Time) (*entity.Lead, error) {
	query := selectLead + " WHERE normalized_phone = $1 AND created_at >= $2"
	args := []any{normalizedPhone, since}
	if projectTypeID != nil {
		query += " AND project_type_id = $3"
		args = append(args, *projectTypeID)
	}
	query += " ORDER BY created_at DESC LIMIT 1"

	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, translate(err)
	}
	return lead, nil
}

// buildLeadFilter renders the WHERE clause for List. The returned string is
// empty or starts with " WHERE".
func buildLeadFilter(f entity.LeadFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ProjectTypeID != nil {
		conds = append(conds, "project_type_id = "+arg(*f.ProjectTypeID))
	}
	if f.Status != nil {
		conds = append(conds, "status = "+arg(string(*f.Status)))
	}
	if f.AssigneeID != nil {
		p := arg(*f.AssigneeID)
		conds = append(conds, fmt.Sprintf("(qualifier_id = %s OR closer_id = %s)", p, p))
	}
	if f.BotCompleted != nil {
		conds = append(conds, "bot_completed = "+arg(*f.BotCompleted))
	}
	if f.Temperature != nil {
		conds = append(conds, "temperature = "+arg(string(*f.Temperature)))
	}
	if f.Source != nil {
		conds = append(conds, "source = "+arg(string(*f.Source)))
	}
	if f.Search != "" {
		name := arg("%" + f.Search + "%")
		if f.SearchPhone != "" {
			conds = append(conds, fmt.Sprintf("(full_name ILIKE %s OR normalized_phone LIKE %s)", name, arg("%"+f.SearchPhone+"%")))
		} else {
			conds = append(conds, fmt.Sprintf("(full_name ILIKE %s OR email ILIKE %s)", name, name))
		}
	}
	if f.Scope.CloserID != nil {
		conds = append(conds, "closer_id = "+arg(*f.Scope.CloserID))
	}
	if f.Scope.QualifierID != nil {
		conds = append(conds, fmt.Sprintf("(status = '%s' OR qualifier_id IS NULL OR qualifier_id = %s)", entity.StatusNewLead, arg(*f.Scope.QualifierID)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		l                         entity.Lead
		source, status            string
		email, campaign, adset    sql.NullString
		ad, city, street, temp    sql.NullString
		qualifierID, closerID     sql.NullString
		botTrack                  sql.NullString
		botPayload                []byte
		specialStruct, docs       []byte
		timeline, plans, permit   sql.NullString
		building, access, size    sql.NullString
		occupied, mamad, private  sql.NullString
		archService, archProperty sql.NullString
		archStage, renoType       sql.NullString
		renoPlan                  sql.NullString
	)
	err := row.Scan(
		&l.ID, &l.ProjectTypeID, &l.FullName, &l.Phone, &l.NormalizedPhone, &email, &source,
		&campaign, &adset, &ad, &city, &street, &temp, &status,
		&qualifierID, &closerID, &botPayload, &botTrack, &l.BotCompleted,
		&timeline, &plans, &permit, &building, &access,
		&size, &occupied, &mamad, &private, &specialStruct,
		&archService, &archProperty, &archStage, &docs,
		&renoType, &renoPlan, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Source = entity.LeadSource(source)
	l.Status = entity.LeadStatus(status)
	l.Email = fromNull(email)
	l.CampaignName = fromNull(campaign)
	l.AdsetName = fromNull(adset)
	l.AdName = fromNull(ad)
	l.City = fromNull(city)
	l.Street = fromNull(street)
	if temp.Valid {
		t := entity.LeadTemperature(temp.String)
		l.Temperature = &t
	}
	l.QualifierID = fromNull(qualifierID)
	l.CloserID = fromNull(closerID)
	if len(botPayload) > 0 {
		l.BotPayload = append([]byte(nil), botPayload...)
	}
	l.BotTrack = fromNull(botTrack)

	q := &l.Qualification
	q.StartTimeline = fromNull(timeline)
	q.PlansStatus = fromNull(plans)
	q.PermitStatus = fromNull(permit)
	q.BuildingType = fromNull(building)
	q.SiteAccess = fromNull(access)
	q.EstimatedSizeBucket = fromNull(size)
	q.IsOccupied = fromNull(occupied)
	q.MamadVariant = fromNull(mamad)
	q.PrivateStage = fromNull(private)
	q.ArchService = fromNull(archService)
	q.ArchPropertyType = fromNull(archProperty)
	q.ArchPlanningStage = fromNull(archStage)
	q.RenoType = fromNull(renoType)
	q.RenoHasPlan = fromNull(renoPlan)
	if q.PrivateSpecialStruct, err = scanList(specialStruct); err != nil {
		return nil, fmt.Errorf("decode private_special_struct: %w", err)
	}
	if q.ArchExistingDocs, err = scanList(docs); err != nil {
		return nil, fmt.Errorf("decode arch_existing_docs: %w", err)
	}
	return &l, nil
}

// leadValues lists the lead's values in leadColumns order.
func leadValues(l *entity.Lead) ([]any, error) {
	specialStruct, err := listParam(l.PrivateSpecialStruct)
	if err != nil {
		return nil, err
	}
	docs, err := listParam(l.ArchExistingDocs)
	if err != nil {
		return nil, err
	}
	var temp *string
	if l.Temperature != nil {
		t := string(*l.Temperature)
		temp = &t
	}
	q := l.Qualification
	return []any{
		l.ID, l.ProjectTypeID, l.FullName, l.Phone, l.NormalizedPhone, l.Email, string(l.Source),
		l.CampaignName, l.AdsetName, l.AdName, l.City, l.Street, temp, string(l.Status),
		l.QualifierID, l.CloserID, jsonParam(l.BotPayload), l.BotTrack, l.BotCompleted,
		q.StartTimeline, q.PlansStatus, q.PermitStatus, q.BuildingType, q.SiteAccess,
		q.EstimatedSizeBucket, q.IsOccupied, q.MamadVariant, q.PrivateStage, specialStruct,
		q.ArchService, q.ArchPropertyType, q.ArchPlanningStage, docs,
		q.RenoType, q.RenoHasPlan, l.CreatedAt, l.UpdatedAt,
	}, nil
}

func isEditable(column string) bool {
	switch column {
	case "id", "status", "created_at":
		return false
	}
	return true
}

// buildUpdateLead returns the UPDATE for the named columns. values are in
// leadColumns order; the id is always $1 and updated_at always last.
func buildUpdateLead(fields []string, values []any) (string, []any, error) {
	args := []any{values[0]}
	var sets []string
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		i := columnIndex(f)
		if i < 0 || !isEditable(f) || !entity.ValidLeadField(f) {
			return "", nil, fmt.Errorf("%w: %s", entity.ErrUnknownField, f)
		}
		args = append(args, values[i])
		sets = append(sets, fmt.Sprintf("%s = $%d", f, len(args)))
	}
	args = append(args, values[columnIndex("updated_at")])
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	return "UPDATE leads SET " + strings.Join(sets, ", ") + " WHERE id = $1", args, nil
}

func columnIndex(column string) int {
	for i, c := range leadColumns {
		if c == column {
			return i
		}
	}
	return -1
}

func placeholders(from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ph, ", ")
}

func appendHistory(ctx context.Context, tx *sql.Tx, entry *entity.StatusHistoryEntry) error {
	var from *string
	if entry.FromStatus != nil {
		s := string(*entry.FromStatus)
		from = &s
	}
	err := tx.QueryRowContext(ctx, insertHistory,
		entry.LeadID, from, string(entry.ToStatus), nullString(entry.ChangedBy), entry.ChangedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
