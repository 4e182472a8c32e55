package database

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

// openTestDB connects to MRK_TEST_DATABASE_URL and applies the schema. The
// test is skipped when the variable is not set.
func openTestDB(t *testing.T, driver string) *sql.DB {
	t.Helper()
	url := os.Getenv("MRK_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("MRK_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := NewDBConnection(ctx, Config{Driver: driver, URL: url, MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))
	return db
}

func TestPostgresLeadLifecycle(t *testing.T) {
	for _, driver := range []string{DriverPgx, DriverPq} {
		t.Run(driver, func(t *testing.T) {
			db := openTestDB(t, driver)
			ctx := context.Background()
			users := NewUserRepository(db)
			leads := NewLeadRepository(db)
			now := time.Now().UTC().Truncate(time.Millisecond)

			actor := &entity.User{
				ID:           uuid.NewString(),
				Name:         "Closer",
				Email:        uuid.NewString() + "@mrk.test",
				PasswordHash: "x",
				Role:         entity.RoleCloser,
				IsActive:     true,
				CreatedAt:    now,
			}
			require.NoError(t, users.Create(ctx, actor))
			assert.ErrorIs(t, users.Create(ctx, &entity.User{ID: uuid.NewString(), Email: actor.Email, Role: entity.RoleAdmin, CreatedAt: now}), entity.ErrAlreadyExists)

			lead := &entity.Lead{
				ID:              uuid.NewString(),
				ProjectTypeID:   1,
				FullName:        "Avi Cohen",
				Phone:           "050-123-4567",
				NormalizedPhone: "972501234567",
				Source:          entity.LeadSourceMetaForm,
				Status:          entity.StatusNewLead,
				BotPayload:      []byte(`{"track":"mamad"}`),
				Qualification:   entity.Qualification{ArchExistingDocs: []string{"tabu"}},
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			require.NoError(t, leads.Create(ctx, lead, ""))

			got, err := leads.FindByID(ctx, lead.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{"tabu"}, got.ArchExistingDocs)
			assert.JSONEq(t, `{"track":"mamad"}`, string(got.BotPayload))
			require.Len(t, got.StatusHistory, 1)
			assert.Empty(t, got.StatusHistory[0].ChangedBy)

			entry := entity.NewStatusHistoryEntry(lead.ID, nil, entity.StatusInitialCallDone, actor.ID, now)
			moved, err := leads.Transition(ctx, lead.ID, entity.StatusNewLead, entry)
			require.NoError(t, err)
			assert.Equal(t, entity.StatusInitialCallDone, moved.Status)
			require.Len(t, moved.StatusHistory, 2)
			assert.Equal(t, entity.StatusNewLead, *moved.StatusHistory[1].FromStatus)

			_, err = leads.Transition(ctx, lead.ID, entity.StatusNewLead, entry)
			assert.ErrorIs(t, err, entity.ErrStatusConflict)
			won := entity.NewStatusHistoryEntry(lead.ID, nil, entity.StatusWon, actor.ID, now)
			_, err = leads.Transition(ctx, lead.ID, entity.StatusInitialCallDone, won)
			assert.ErrorIs(t, err, entity.ErrInvalidEdge)

			// got is stale: it predates the transition and the assignment below
			require.NoError(t, leads.AssignCloser(ctx, lead.ID, actor.ID, actor.ID, now))
			got.Status = entity.StatusWon
			got.City = nullString("Haifa")
			require.NoError(t, leads.Update(ctx, got, []string{"city"}))

			recent, err := leads.FindRecentByPhone(ctx, "972501234567", &lead.ProjectTypeID, now.Add(-time.Hour))
			require.NoError(t, err)
			assert.Equal(t, "Haifa", *recent.City)
			assert.Equal(t, entity.StatusInitialCallDone, recent.Status)
			require.NotNil(t, recent.CloserID)
			assert.Equal(t, actor.ID, *recent.CloserID)
			assert.Equal(t, actor.ID, *recent.QualifierID)

			assert.ErrorIs(t, leads.Update(ctx, &entity.Lead{ID: uuid.NewString()}, []string{"city"}), entity.ErrNotFound)
			assert.ErrorIs(t, leads.AssignCloser(ctx, uuid.NewString(), actor.ID, actor.ID, now), entity.ErrNotFound)

			_, err = leads.FindByID(ctx, "not-a-uuid")
			assert.ErrorIs(t, err, entity.ErrNotFound)
			_, err = leads.FindByID(ctx, uuid.NewString())
			assert.ErrorIs(t, err, entity.ErrNotFound)
		})
	}
}

func TestPostgresConcurrentTransitions(t *testing.T) {
	db := openTestDB(t, DriverPgx)
	ctx := context.Background()
	leads := NewLeadRepository(db)
	now := time.Now().UTC()

	lead := &entity.Lead{
		ID:              uuid.NewString(),
		ProjectTypeID:   3,
		FullName:        "Race",
		Phone:           "0500000000",
		NormalizedPhone: "972500000000",
		Source:          entity.LeadSourceManual,
		Status:          entity.StatusOfferSent,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, leads.Create(ctx, lead, ""))

	targets := []entity.LeadStatus{entity.StatusWon, entity.StatusLost}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, to := range targets {
		wg.Add(1)
		go func(i int, to entity.LeadStatus) {
			defer wg.Done()
			_, errs[i] = leads.Transition(ctx, lead.ID, entity.StatusOfferSent, entity.NewStatusHistoryEntry(lead.ID, nil, to, "", now))
		}(i, to)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assert.ErrorIs(t, err, entity.ErrStatusConflict)
		}
	}
	assert.Equal(t, 1, failures)

	final, err := leads.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Len(t, final.StatusHistory, 2)
	assert.Equal(t, final.Status, final.StatusHistory[1].ToStatus)
}
