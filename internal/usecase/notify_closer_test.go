package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/mrk-crm/internal/entity"
	"github.com/xavierca1/mrk-crm/internal/infra/mail"
	"github.com/xavierca1/mrk-crm/internal/infra/queue"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyCloser(to string, n mail.CloserNotification) error {
	return m.Called(to, n).Error(0)
}

type integrationErrors struct {
	noopRecorder
	services []string
}

func (r *integrationErrors) RecordIntegrationError(service string) {
	r.services = append(r.services, service)
}

func TestNotifyCloserOnAssignment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lead := f.seedLead(t, entity.StatusFitForMeeting)
	notifier := new(MockNotifier)
	notifier.On("NotifyCloser", f.closer.Email, mail.CloserNotification{
		CloserName: f.closer.Name,
		LeadID:     lead.ID,
		LeadName:   lead.FullName,
		LeadPhone:  lead.Phone,
		Status:     string(entity.StatusFitForMeeting),
		Assigned:   true,
	}).Return(nil).Once()

	uc := NewNotifyCloserUseCase(f.leads, f.users, notifier, nil, f.logger)
	err := uc.HandleLeadEvent(ctx, queue.LeadEvent{Type: queue.EventLeadCloserAssigned, LeadID: lead.ID, CloserID: f.closer.ID})
	require.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestNotifyCloserSkipsIrrelevantEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lead := f.seedLead(t, entity.StatusNewLead)
	notifier := new(MockNotifier)
	uc := NewNotifyCloserUseCase(f.leads, f.users, notifier, nil, f.logger)

	events := []queue.LeadEvent{
		{Type: queue.EventLeadCreated, LeadID: lead.ID, CloserID: f.closer.ID},
		{Type: queue.EventLeadStatusChanged, LeadID: lead.ID},
		{Type: queue.EventLeadStatusChanged, LeadID: lead.ID, CloserID: "7d1d4f1e-2f1b-4d3f-9c55-0e9b6f3a1a11"},
		{Type: queue.EventLeadStatusChanged, LeadID: "missing", CloserID: f.closer.ID},
	}
	for _, e := range events {
		assert.NoError(t, uc.HandleLeadEvent(ctx, e))
	}
	notifier.AssertNotCalled(t, "NotifyCloser", mock.Anything, mock.Anything)

	none := NewNotifyCloserUseCase(f.leads, f.users, nil, nil, f.logger)
	assert.NoError(t, none.HandleLeadEvent(ctx, queue.LeadEvent{Type: queue.EventLeadCloserAssigned, LeadID: lead.ID, CloserID: f.closer.ID}))
}

func TestNotifyCloserReportsSMTPFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lead := f.seedLead(t, entity.StatusMeetingScheduled)
	notifier := new(MockNotifier)
	notifier.On("NotifyCloser", mock.Anything, mock.Anything).Return(errors.New("dial tcp: refused"))
	metrics := &integrationErrors{}

	uc := NewNotifyCloserUseCase(f.leads, f.users, notifier, metrics, f.logger)
	err := uc.HandleLeadEvent(ctx, queue.LeadEvent{
		Type:     queue.EventLeadStatusChanged,
		LeadID:   lead.ID,
		CloserID: f.closer.ID,
		ToStatus: string(entity.StatusMeetingScheduled),
	})
	assert.Error(t, err)
	assert.Equal(t, []string{"smtp"}, metrics.services)
}
