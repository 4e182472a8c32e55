// Package memstore keeps every repository in process memory. It backs the
// memory storage driver and gives the same atomicity guarantees as the SQL
// repositories through a mutex per repository.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

type LeadRepository struct {
	mu        sync.RWMutex
	leads     map[string]*entity.Lead
	history   map[string][]entity.StatusHistoryEntry
	historyID int64
}

func NewLeadRepository() *LeadRepository {
	return &LeadRepository{
		leads:   make(map[string]*entity.Lead),
		history: make(map[string][]entity.StatusHistoryEntry),
	}
}

func (r *LeadRepository) Create(_ context.Context, lead *entity.Lead, changedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[lead.ID]; ok {
		return entity.ErrAlreadyExists
	}

	r.historyID++
	entry := entity.NewStatusHistoryEntry(lead.ID, nil, lead.Status, changedBy, lead.CreatedAt)
	entry.ID = r.historyID

	stored := cloneLead(lead)
	stored.StatusHistory = nil
	r.leads[lead.ID] = stored
	r.history[lead.ID] = []entity.StatusHistoryEntry{entry}

	lead.StatusHistory = []entity.StatusHistoryEntry{entry}
	return nil
}

func (r *LeadRepository) FindByID(_ context.Context, id string) (*entity.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.leads[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	lead := cloneLead(stored)
	lead.StatusHistory = append([]entity.StatusHistoryEntry(nil), r.history[id]...)
	return lead, nil
}

func (r *LeadRepository) List(_ context.Context, f entity.LeadFilter) ([]entity.Lead, int, error) {
	r.mu.RLock()
	var matched []*entity.Lead
	for _, l := range r.leads {
		if matches(l, f) {
			matched = append(matched, l)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (f.Page - 1) * f.PageSize
	if start < 0 || start > total {
		start = total
	}
	end := start + f.PageSize
	if end > total || f.PageSize <= 0 {
		end = total
	}

	out := make([]entity.Lead, 0, end-start)
	for _, l := range matched[start:end] {
		out = append(out, *cloneLead(l))
	}
	return out, total, nil
}

func matches(l *entity.Lead, f entity.LeadFilter) bool {
	if f.ProjectTypeID != nil && l.ProjectTypeID != *f.ProjectTypeID {
		return false
	}
	if f.Status != nil && l.Status != *f.Status {
		return false
	}
	if f.AssigneeID != nil && !eq(l.QualifierID, *f.AssigneeID) && !eq(l.CloserID, *f.AssigneeID) {
		return false
	}
	if f.Temperature != nil && (l.Temperature == nil || *l.Temperature != *f.Temperature) {
		return false
	}
	if f.Source != nil && l.Source != *f.Source {
		return false
	}
	if f.BotCompleted != nil && l.BotCompleted != *f.BotCompleted {
		return false
	}
	if f.Search != "" && !searchMatches(l, f) {
		return false
	}
	return f.Scope.Allows(l)
}

func searchMatches(l *entity.Lead, f entity.LeadFilter) bool {
	term := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(l.FullName), term) {
		return true
	}
	if f.SearchPhone != "" {
		return strings.Contains(l.NormalizedPhone, f.SearchPhone)
	}
	return l.Email != nil && strings.Contains(strings.ToLower(*l.Email), term)
}

// Update copies the named fields onto the stored lead under the lock, so
// concurrent writers of different fields do not undo each other.
func (r *LeadRepository) Update(_ context.Context, lead *entity.Lead, fields []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.leads[lead.ID]
	if !ok {
		return entity.ErrNotFound
	}

	next := cloneLead(stored)
	if err := entity.CopyLeadFields(next, cloneLead(lead), fields); err != nil {
		return err
	}
	next.UpdatedAt = lead.UpdatedAt
	r.leads[lead.ID] = next
	return nil
}

func (r *LeadRepository) AssignCloser(_ context.Context, leadID, closerID, qualifierID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.leads[leadID]
	if !ok {
		return entity.ErrNotFound
	}

	next := cloneLead(stored)
	next.CloserID = &closerID
	if next.QualifierID == nil {
		next.QualifierID = &qualifierID
	}
	next.UpdatedAt = at
	r.leads[leadID] = next
	return nil
}

func (r *LeadRepository) Transition(_ context.Context, leadID string, expected entity.LeadStatus, entry entity.StatusHistoryEntry) (*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.leads[leadID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	if stored.Status != expected {
		return nil, fmt.Errorf("%w: expected %s, found %s", entity.ErrStatusConflict, expected, stored.Status)
	}
	if !entity.CanTransition(stored.Status, entry.ToStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", entity.ErrInvalidEdge, stored.Status, entry.ToStatus)
	}

	r.historyID++
	entry.ID = r.historyID
	entry.LeadID = leadID

	next := cloneLead(stored)
	next.Status = entry.ToStatus
	next.UpdatedAt = entry.ChangedAt
	r.leads[leadID] = next
	r.history[leadID] = append(r.history[leadID], entry)

	out := cloneLead(next)
	out.StatusHistory = append([]entity.StatusHistoryEntry(nil), r.history[leadID]...)
	return out, nil
}

func (r *LeadRepository) History(_ context.Context, leadID string) ([]entity.StatusHistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entity.StatusHistoryEntry(nil), r.history[leadID]...), nil
}

func (r *LeadRepository) FindRecentByPhone(_ context.Context, normalizedPhone string, projectTypeID *int, since time.Time) (*entity.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *entity.Lead
	for _, l := range r.leads {
		if l.NormalizedPhone != normalizedPhone || l.CreatedAt.Before(since) {
			continue
		}
		if projectTypeID != nil && l.ProjectTypeID != *projectTypeID {
			continue
		}
		if best == nil || l.CreatedAt.After(best.CreatedAt) {
			best = l
		}
	}
	if best == nil {
		return nil, entity.ErrNotFound
	}
	return cloneLead(best), nil
}

func cloneLead(l *entity.Lead) *entity.Lead {
	c := *l
	if l.BotPayload != nil {
		c.BotPayload = append([]byte(nil), l.BotPayload...)
	}
	if l.PrivateSpecialStruct != nil {
		c.PrivateSpecialStruct = append([]string(nil), l.PrivateSpecialStruct...)
	}
	if l.ArchExistingDocs != nil {
		c.ArchExistingDocs = append([]string(nil), l.ArchExistingDocs...)
	}
	if l.StatusHistory != nil {
		c.StatusHistory = append([]entity.StatusHistoryEntry(nil), l.StatusHistory...)
	}
	return &c
}

func eq(p *string, v string) bool {
	return p != nil && *p == v
}
