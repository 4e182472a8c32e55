package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

var t0 = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func seedLead(t *testing.T, r *LeadRepository, id string, status entity.LeadStatus, at time.Time) *entity.Lead {
	t.Helper()
	l := &entity.Lead{
		ID:              id,
		ProjectTypeID:   3,
		FullName:        "Lead " + id,
		Phone:           "050-1234567",
		NormalizedPhone: "972501234567",
		Source:          entity.LeadSourceManual,
		Status:          status,
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	require.NoError(t, r.Create(context.Background(), l, "creator"))
	return l
}

func TestCreateWritesInitialHistory(t *testing.T) {
	r := NewLeadRepository()
	l := seedLead(t, r, "a", entity.StatusNewLead, t0)

	require.Len(t, l.StatusHistory, 1)
	assert.Nil(t, l.StatusHistory[0].FromStatus)
	assert.Equal(t, entity.StatusNewLead, l.StatusHistory[0].ToStatus)
	assert.Equal(t, "creator", l.StatusHistory[0].ChangedBy)

	assert.ErrorIs(t, r.Create(context.Background(), l, ""), entity.ErrAlreadyExists)
}

func TestTransitionChecksExpectedStatus(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepository()
	seedLead(t, r, "a", entity.StatusNewLead, t0)

	from := entity.StatusNewLead
	entry := entity.NewStatusHistoryEntry("a", &from, entity.StatusInitialCallDone, "u1", t0.Add(time.Minute))
	got, err := r.Transition(ctx, "a", entity.StatusNewLead, entry)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInitialCallDone, got.Status)
	require.Len(t, got.StatusHistory, 2)
	assert.True(t, got.CurrentStatusConsistent())

	_, err = r.Transition(ctx, "a", entity.StatusNewLead, entry)
	assert.ErrorIs(t, err, entity.ErrStatusConflict)

	from = entity.StatusInitialCallDone
	_, err = r.Transition(ctx, "a", from, entity.NewStatusHistoryEntry("a", &from, entity.StatusWon, "u1", t0))
	assert.ErrorIs(t, err, entity.ErrInvalidEdge)

	_, err = r.Transition(ctx, "missing", from, entry)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestConcurrentTransitionsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepository()
	seedLead(t, r, "a", entity.StatusOfferSent, t0)

	from := entity.StatusOfferSent
	targets := []entity.LeadStatus{entity.StatusWon, entity.StatusLost}
	errs := make([]error, len(targets))

	var wg sync.WaitGroup
	for i, to := range targets {
		wg.Add(1)
		go func(i int, to entity.LeadStatus) {
			defer wg.Done()
			_, errs[i] = r.Transition(ctx, "a", from, entity.NewStatusHistoryEntry("a", &from, to, "u", t0))
		}(i, to)
	}
	wg.Wait()

	var winner entity.LeadStatus
	failures := 0
	for i, err := range errs {
		if err == nil {
			winner = targets[i]
			continue
		}
		failures++
		assert.ErrorIs(t, err, entity.ErrStatusConflict)
	}
	assert.Equal(t, 1, failures)

	got, err := r.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, winner, got.Status)
	assert.Len(t, got.StatusHistory, 2)
}

func TestUpdateNeverChangesStatus(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepository()
	l := seedLead(t, r, "a", entity.StatusNewLead, t0)

	l.Status = entity.StatusWon
	l.FullName = "Renamed"
	require.NoError(t, r.Update(ctx, l, entity.EditableLeadFields))

	got, err := r.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.FullName)
	assert.Equal(t, entity.StatusNewLead, got.Status)
	assert.Len(t, got.StatusHistory, 1)

	assert.ErrorIs(t, r.Update(ctx, l, []string{"status"}), entity.ErrUnknownField)
	assert.ErrorIs(t, r.Update(ctx, &entity.Lead{ID: "missing"}, nil), entity.ErrNotFound)
}

func TestUpdateWritesOnlyNamedFields(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepository()
	seedLead(t, r, "a", entity.StatusNewLead, t0)

	// two writers holding the same stale copy
	first, _ := r.FindByID(ctx, "a")
	second, _ := r.FindByID(ctx, "a")

	require.NoError(t, r.AssignCloser(ctx, "a", "closer-1", "qual-1", t0.Add(time.Minute)))

	city := "Haifa"
	second.City = &city
	require.NoError(t, r.Update(ctx, second, []string{"city"}))

	first.FullName = "Renamed"
	require.NoError(t, r.Update(ctx, first, []string{"full_name"}))

	got, err := r.FindByID(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got.CloserID)
	assert.Equal(t, "closer-1", *got.CloserID)
	require.NotNil(t, got.City)
	assert.Equal(t, "Haifa", *got.City)
	assert.Equal(t, "Renamed", got.FullName)
}

func TestAssignCloserKeepsExistingQualifier(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepository()
	l := seedLead(t, r, "a", entity.StatusNewLead, t0)
	owner := "qual-1"
	l.QualifierID = &owner
	require.NoError(t, r.Update(ctx, l, []string{"qualifier_id"}))

	require.NoError(t, r.AssignCloser(ctx, "a", "closer-1", "qual-2", t0.Add(time.Hour)))

	got, err := r.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "qual-1", *got.QualifierID)
	assert.Equal(t, "closer-1", *got.CloserID)
	assert.Equal(t, t0.Add(time.Hour), got.UpdatedAt)

	assert.ErrorIs(t, r.AssignCloser(ctx, "missing", "c", "q", t0), entity.ErrNotFound)
}

func TestFindByIDReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepository()
	seedLead(t, r, "a", entity.StatusNewLead, t0)

	got, _ := r.FindByID(ctx, "a")
	got.StatusHistory[0].ToStatus = entity.StatusWon
	got.FullName = "changed"

	again, _ := r.FindByID(ctx, "a")
	assert.Equal(t, entity.StatusNewLead, again.StatusHistory[0].ToStatus)
	assert.Equal(t, "Lead a", again.FullName)
}

func TestListFiltersScopeAndPaging(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepository()
	closer, qualifier, other := "closer-1", "qual-1", "qual-2"

	for i := 0; i < 5; i++ {
		seedLead(t, r, fmt.Sprintf("n%d", i), entity.StatusNewLead, t0.Add(time.Duration(i)*time.Hour))
	}
	owned := seedLead(t, r, "owned", entity.StatusNewLead, t0.Add(10*time.Hour))
	owned.CloserID = &closer
	owned.QualifierID = &other
	require.NoError(t, r.Update(ctx, owned, []string{"closer_id", "qualifier_id"}))

	leads, total, err := r.List(ctx, entity.LeadFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, leads, 2)
	assert.Equal(t, "owned", leads[0].ID)
	assert.Equal(t, "n4", leads[1].ID)

	leads, _, _ = r.List(ctx, entity.LeadFilter{Page: 4, PageSize: 2})
	assert.Empty(t, leads)

	leads, total, _ = r.List(ctx, entity.LeadFilter{Page: 1, PageSize: 20, Scope: entity.LeadScope{CloserID: &closer}})
	assert.Equal(t, 1, total)
	assert.Equal(t, "owned", leads[0].ID)

	// new_lead stays visible to every qualifier even when someone else owns it
	_, total, _ = r.List(ctx, entity.LeadFilter{Page: 1, PageSize: 20, Scope: entity.LeadScope{QualifierID: &qualifier}})
	assert.Equal(t, 6, total)

	leads, _, _ = r.List(ctx, entity.LeadFilter{Page: 1, PageSize: 20, AssigneeID: &closer})
	require.Len(t, leads, 1)

	leads, _, _ = r.List(ctx, entity.LeadFilter{Page: 1, PageSize: 20, Search: "LEAD N3"})
	require.Len(t, leads, 1)
	assert.Equal(t, "n3", leads[0].ID)

	leads, _, _ = r.List(ctx, entity.LeadFilter{Page: 1, PageSize: 20, Search: "0501234", SearchPhone: "972501234"})
	assert.Len(t, leads, 6)
}

func TestQualifierScopeHidesOthersProgressedLeads(t *testing.T) {
	q1, q2 := "q1", "q2"
	lead := &entity.Lead{Status: entity.StatusMeetingDone, QualifierID: &q2}
	assert.False(t, entity.LeadScope{QualifierID: &q1}.Allows(lead))
	assert.True(t, entity.LeadScope{QualifierID: &q2}.Allows(lead))
	lead.QualifierID = nil
	assert.True(t, entity.LeadScope{QualifierID: &q1}.Allows(lead))
}

func TestFindRecentByPhone(t *testing.T) {
	ctx := context.Background()
	r := NewLeadRepository()
	seedLead(t, r, "old", entity.StatusNewLead, t0.Add(-40*24*time.Hour))
	seedLead(t, r, "recent", entity.StatusNewLead, t0)

	since := t0.Add(-30 * 24 * time.Hour)
	got, err := r.FindRecentByPhone(ctx, "972501234567", nil, since)
	require.NoError(t, err)
	assert.Equal(t, "recent", got.ID)

	other := 1
	_, err = r.FindRecentByPhone(ctx, "972501234567", &other, since)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestUserRepositoryEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()
	require.NoError(t, r.Create(ctx, &entity.User{ID: "1", Email: "a@x.io", CreatedAt: t0}))
	require.NoError(t, r.Create(ctx, &entity.User{ID: "2", Email: "b@x.io", CreatedAt: t0.Add(time.Hour)}))

	assert.ErrorIs(t, r.Create(ctx, &entity.User{ID: "3", Email: "A@x.io"}), entity.ErrAlreadyExists)
	assert.ErrorIs(t, r.Update(ctx, &entity.User{ID: "2", Email: "a@x.io"}), entity.ErrAlreadyExists)

	users, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", users[0].ID)

	_, err = r.FindByEmail(ctx, "nobody@x.io")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestCampaignMappingsOrderedByPriority(t *testing.T) {
	ctx := context.Background()
	r := NewCampaignMappingRepository()
	require.NoError(t, r.Create(ctx, &entity.CampaignMapping{ID: "b", Priority: 50, IsActive: true}))
	require.NoError(t, r.Create(ctx, &entity.CampaignMapping{ID: "a", Priority: 10, IsActive: true}))
	require.NoError(t, r.Create(ctx, &entity.CampaignMapping{ID: "off", Priority: 1, IsActive: false}))

	got, err := r.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestActivitiesNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := NewActivityRepository()
	require.NoError(t, r.Create(ctx, &entity.Activity{ID: "1", LeadID: "l", CreatedAt: t0}))
	require.NoError(t, r.Create(ctx, &entity.Activity{ID: "2", LeadID: "l", CreatedAt: t0.Add(time.Minute)}))
	require.NoError(t, r.Create(ctx, &entity.Activity{ID: "3", LeadID: "other", CreatedAt: t0}))

	got, err := r.ListByLead(ctx, "l")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
}
