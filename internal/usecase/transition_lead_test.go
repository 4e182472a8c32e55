package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/mrk-crm/internal/entity"
	"github.com/xavierca1/mrk-crm/internal/infra/queue"
)

func allowAll() TransitionPolicy {
	return TransitionPolicyFunc(func(entity.User, entity.LeadStatus, entity.LeadStatus) bool { return true })
}

func TestTransitionEveryPairFollowsTable(t *testing.T) {
	ctx := context.Background()

	for _, from := range entity.PipelineStatuses {
		for _, to := range entity.PipelineStatuses {
			f := newFixture(t)
			uc := f.transitionUseCase(allowAll())
			lead := f.seedLead(t, from)

			out, err := uc.Execute(ctx, TransitionLeadInput{LeadID: lead.ID, ToStatus: to}, f.admin)
			stored, _ := f.leads.FindByID(ctx, lead.ID)

			if entity.CanTransition(from, to) {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, out.Status)
				assert.Len(t, stored.StatusHistory, 2)
				last := stored.StatusHistory[1]
				assert.Equal(t, from, *last.FromStatus)
				assert.Equal(t, to, last.ToStatus)
				assert.Equal(t, f.admin.ID, last.ChangedBy)
				assert.Equal(t, epoch, last.ChangedAt)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, to)
				assert.Equal(t, from, stored.Status)
				assert.Len(t, stored.StatusHistory, 1)
			}
			assert.True(t, stored.CurrentStatusConsistent())
		}
	}
}

func TestTransitionScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uc := f.transitionUseCase(nil)
	lead := f.seedLead(t, entity.StatusNewLead)

	step := func(to entity.LeadStatus) error {
		_, err := uc.Execute(ctx, TransitionLeadInput{LeadID: lead.ID, ToStatus: to}, f.closer)
		return err
	}

	require.NoError(t, step(entity.StatusInitialCallDone))
	assert.ErrorIs(t, step(entity.StatusWon), ErrInvalidTransition)
	require.NoError(t, step(entity.StatusFitForMeeting))
	require.NoError(t, step(entity.StatusLost))
	assert.ErrorIs(t, step(entity.StatusMeetingDone), ErrInvalidTransition)
	require.NoError(t, step(entity.StatusNewLead))

	got, err := f.leads.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusNewLead, got.Status)

	var trail []entity.LeadStatus
	for _, e := range got.StatusHistory {
		trail = append(trail, e.ToStatus)
	}
	assert.Equal(t, []entity.LeadStatus{
		entity.StatusNewLead,
		entity.StatusInitialCallDone,
		entity.StatusFitForMeeting,
		entity.StatusLost,
		entity.StatusNewLead,
	}, trail)
}

func TestTransitionReopenKeepsQualification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lead := f.seedLead(t, entity.StatusLost)
	timeline := "immediate"
	lead.StartTimeline = &timeline
	require.NoError(t, f.leads.Update(ctx, lead, []string{"start_timeline"}))

	out, err := f.transitionUseCase(nil).Execute(ctx, TransitionLeadInput{LeadID: lead.ID, ToStatus: entity.StatusNewLead}, f.closer)
	require.NoError(t, err)
	require.NotNil(t, out.StartTimeline)
	assert.Equal(t, "immediate", *out.StartTimeline)
}

func TestTransitionErrorOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	deny := TransitionPolicyFunc(func(entity.User, entity.LeadStatus, entity.LeadStatus) bool { return false })
	uc := f.transitionUseCase(deny)
	lead := f.seedLead(t, entity.StatusNewLead)

	// unknown target beats unknown lead
	_, err := uc.Execute(ctx, TransitionLeadInput{LeadID: "missing", ToStatus: "archived"}, f.admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = uc.Execute(ctx, TransitionLeadInput{LeadID: "missing", ToStatus: entity.StatusWon}, f.admin)
	assert.ErrorIs(t, err, ErrNotFound)

	// table beats policy
	_, err = uc.Execute(ctx, TransitionLeadInput{LeadID: lead.ID, ToStatus: entity.StatusWon}, f.admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = uc.Execute(ctx, TransitionLeadInput{LeadID: lead.ID, ToStatus: entity.StatusInitialCallDone}, f.admin)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, IsRetryable(err))

	got, _ := f.leads.FindByID(ctx, lead.ID)
	assert.Len(t, got.StatusHistory, 1)
}

func TestTransitionRolePolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uc := f.transitionUseCase(nil)

	lead := f.seedLead(t, entity.StatusNegotiation)
	_, err := uc.Execute(ctx, TransitionLeadInput{LeadID: lead.ID, ToStatus: entity.StatusWon}, f.qualifier)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = uc.Execute(ctx, TransitionLeadInput{LeadID: lead.ID, ToStatus: entity.StatusWon}, f.closer)
	require.NoError(t, err)

	lead = f.seedLead(t, entity.StatusNewLead)
	_, err = uc.Execute(ctx, TransitionLeadInput{LeadID: lead.ID, ToStatus: entity.StatusIrrelevant}, f.qualifier)
	require.NoError(t, err)

	inactive := f.admin
	inactive.IsActive = false
	lead = f.seedLead(t, entity.StatusNewLead)
	_, err = uc.Execute(ctx, TransitionLeadInput{LeadID: lead.ID, ToStatus: entity.StatusInitialCallDone}, inactive)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTransitionConcurrentRacersFromOfferSent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uc := f.transitionUseCase(nil)
	lead := f.seedLead(t, entity.StatusOfferSent)

	targets := []entity.LeadStatus{entity.StatusWon, entity.StatusLost}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, to := range targets {
		wg.Add(1)
		go func(i int, to entity.LeadStatus) {
			defer wg.Done()
			_, errs[i] = uc.Execute(ctx, TransitionLeadInput{LeadID: lead.ID, ToStatus: to}, f.closer)
		}(i, to)
	}
	wg.Wait()

	var winner entity.LeadStatus
	successes := 0
	for i, err := range errs {
		if err == nil {
			successes++
			winner = targets[i]
			continue
		}
		assert.True(t, errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrInvalidTransition), "unexpected %v", err)
	}
	require.Equal(t, 1, successes)

	got, err := f.leads.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, winner, got.Status)
	assert.Len(t, got.StatusHistory, 2)
}

func TestTransitionMapsRepositoryErrors(t *testing.T) {
	ctx := context.Background()
	lead := &entity.Lead{ID: "l1", Status: entity.StatusOfferSent}

	cases := []struct {
		repoErr error
		want    error
	}{
		{entity.ErrStatusConflict, ErrConcurrentModification},
		{entity.ErrInvalidEdge, ErrInvalidTransition},
		{entity.ErrNotFound, ErrNotFound},
	}
	for _, tc := range cases {
		repo := new(MockLeadRepository)
		repo.On("FindByID", mock.Anything, "l1").Return(lead, nil)
		repo.On("Transition", mock.Anything, "l1", entity.StatusOfferSent, mock.Anything).Return(nil, tc.repoErr)

		uc := NewTransitionLeadUseCase(repo, nil, nil, nil, nil, nil)
		_, err := uc.Execute(ctx, TransitionLeadInput{LeadID: "l1", ToStatus: entity.StatusWon}, entity.User{ID: "u", Role: entity.RoleCloser, IsActive: true})
		assert.ErrorIs(t, err, tc.want)
		assert.True(t, IsDomainError(err))
		assert.False(t, IsTechnicalError(err))
	}

	repo := new(MockLeadRepository)
	repo.On("FindByID", mock.Anything, "l1").Return(lead, nil)
	repo.On("Transition", mock.Anything, "l1", entity.StatusOfferSent, mock.Anything).Return(nil, errors.New("connection reset"))
	_, err := NewTransitionLeadUseCase(repo, nil, nil, nil, nil, nil).
		Execute(ctx, TransitionLeadInput{LeadID: "l1", ToStatus: entity.StatusWon}, entity.User{ID: "u", Role: entity.RoleCloser, IsActive: true})
	assert.True(t, IsTechnicalError(err))
	assert.False(t, IsDomainError(err))

	retry := newDomainError(CodeConcurrentModification, "x")
	assert.True(t, IsRetryable(retry))
}

func TestTransitionPublishesEventBestEffort(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lead := f.seedLead(t, entity.StatusMeetingDone)
	closerID := f.closer.ID
	lead.CloserID = &closerID
	require.NoError(t, f.leads.Update(ctx, lead, []string{"closer_id"}))

	pub := new(MockEventPublisher)
	pub.On("PublishLeadEvent", mock.Anything, mock.MatchedBy(func(e queue.LeadEvent) bool {
		return e.Type == queue.EventLeadStatusChanged &&
			e.FromStatus == "meeting_done" && e.ToStatus == "offer_sent" &&
			e.CloserID == closerID && e.LeadID == lead.ID
	})).Return(errors.New("broker down")).Once()

	metrics := &recordingMetrics{}
	uc := NewTransitionLeadUseCase(f.leads, nil, pub, f.clock, metrics, f.logger)
	out, err := uc.Execute(ctx, TransitionLeadInput{LeadID: lead.ID, ToStatus: entity.StatusOfferSent}, f.closer)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOfferSent, out.Status)
	assert.ElementsMatch(t, []entity.LeadStatus{entity.StatusNegotiation, entity.StatusWon, entity.StatusLost}, out.AllowedTransitions)
	assert.Equal(t, []string{"meeting_done>offer_sent:ok"}, metrics.transitions)
	pub.AssertExpectations(t)
}
