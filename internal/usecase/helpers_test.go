package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/mrk-crm/internal/entity"
	"github.com/xavierca1/mrk-crm/internal/infra/memstore"
	"github.com/xavierca1/mrk-crm/internal/infra/queue"
)

var epoch = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	clock    *testclock.Clock
	leads    *memstore.LeadRepository
	users    *memstore.UserRepository
	types    *memstore.ProjectTypeRepository
	mappings *memstore.CampaignMappingRepository
	events   *MockEventPublisher
	logger   *slog.Logger

	admin, qualifier, closer entity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:    testclock.NewClock(epoch),
		leads:    memstore.NewLeadRepository(),
		users:    memstore.NewUserRepository(),
		types:    memstore.NewProjectTypeRepository(),
		mappings: memstore.NewCampaignMappingRepository(),
		events:   new(MockEventPublisher),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	f.events.On("PublishLeadEvent", mock.Anything, mock.Anything).Return(nil).Maybe()

	f.admin = f.addUser(t, "Admin", entity.RoleAdmin)
	f.qualifier = f.addUser(t, "Qualifier", entity.RoleQualifier)
	f.closer = f.addUser(t, "Closer", entity.RoleCloser)
	return f
}

func (f *fixture) addUser(t *testing.T, name string, role entity.UserRole) entity.User {
	t.Helper()
	u := entity.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     uuid.NewString()[:8] + "@mrk.test",
		Role:      role,
		IsActive:  true,
		CreatedAt: f.clock.Now(),
	}
	require.NoError(t, f.users.Create(context.Background(), &u))
	return u
}

// seedLead stores a lead directly at status, bypassing the pipeline.
func (f *fixture) seedLead(t *testing.T, status entity.LeadStatus) *entity.Lead {
	t.Helper()
	l := &entity.Lead{
		ID:              uuid.NewString(),
		ProjectTypeID:   1,
		FullName:        "Avi Cohen",
		Phone:           "050-123-4567",
		NormalizedPhone: "972501234567",
		Source:          entity.LeadSourceManual,
		Status:          status,
		CreatedAt:       f.clock.Now(),
		UpdatedAt:       f.clock.Now(),
	}
	require.NoError(t, f.leads.Create(context.Background(), l, f.admin.ID))
	return l
}

func (f *fixture) transitionUseCase(policy TransitionPolicy) *TransitionLeadUseCase {
	return NewTransitionLeadUseCase(f.leads, policy, f.events, f.clock, nil, f.logger)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishLeadEvent(ctx context.Context, event queue.LeadEvent) error {
	return m.Called(ctx, event).Error(0)
}

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead, changedBy string) error {
	return m.Called(ctx, lead, changedBy).Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]entity.Lead), args.Int(1), args.Error(2)
}

func (m *MockLeadRepository) Update(ctx context.Context, lead *entity.Lead, fields []string) error {
	return m.Called(ctx, lead, fields).Error(0)
}

func (m *MockLeadRepository) AssignCloser(ctx context.Context, leadID, closerID, qualifierID string, at time.Time) error {
	return m.Called(ctx, leadID, closerID, qualifierID, at).Error(0)
}

func (m *MockLeadRepository) Transition(ctx context.Context, leadID string, expected entity.LeadStatus, entry entity.StatusHistoryEntry) (*entity.Lead, error) {
	args := m.Called(ctx, leadID, expected, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) History(ctx context.Context, leadID string) ([]entity.StatusHistoryEntry, error) {
	args := m.Called(ctx, leadID)
	return args.Get(0).([]entity.StatusHistoryEntry), args.Error(1)
}

func (m *MockLeadRepository) FindRecentByPhone(ctx context.Context, normalizedPhone string, projectTypeID *int, since time.Time) (*entity.Lead, error) {
	args := m.Called(ctx, normalizedPhone, projectTypeID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

type recordingMetrics struct {
	noopRecorder
	transitions []string
	ingested    []string
}

func (r *recordingMetrics) RecordTransition(from, to entity.LeadStatus, result string) {
	r.transitions = append(r.transitions, string(from)+">"+string(to)+":"+result)
}

func (r *recordingMetrics) RecordLeadIngested(source, outcome string) {
	r.ingested = append(r.ingested, source+":"+outcome)
}
