package entity

import "fmt"

// LeadStatus is a stage of the sales pipeline.
type LeadStatus string

const (
	StatusNewLead          LeadStatus = "new_lead"
	StatusInitialCallDone  LeadStatus = "initial_call_done"
	StatusFitForMeeting    LeadStatus = "fit_for_meeting"
	StatusMeetingScheduled LeadStatus = "meeting_scheduled"
	StatusMeetingDone      LeadStatus = "meeting_done"
	StatusOfferSent        LeadStatus = "offer_sent"
	StatusNegotiation      LeadStatus = "negotiation"
	StatusWon              LeadStatus = "won"
	StatusLost             LeadStatus = "lost"
	StatusIrrelevant       LeadStatus = "irrelevant"
)

func (s LeadStatus) String() string {
	return string(s)
}

// PipelineStatuses lists every status in board order.
var PipelineStatuses = []LeadStatus{
	StatusNewLead,
	StatusInitialCallDone,
	StatusFitForMeeting,
	StatusMeetingScheduled,
	StatusMeetingDone,
	StatusOfferSent,
	StatusNegotiation,
	StatusWon,
	StatusLost,
	StatusIrrelevant,
}

// pipelineTransitions is the only source of legal edges. It is never
// mutated; readers get copies.
var pipelineTransitions = map[LeadStatus][]LeadStatus{
	StatusNewLead:          {StatusInitialCallDone, StatusIrrelevant},
	StatusInitialCallDone:  {StatusFitForMeeting, StatusIrrelevant, StatusLost},
	StatusFitForMeeting:    {StatusMeetingScheduled, StatusIrrelevant, StatusLost},
	StatusMeetingScheduled: {StatusMeetingDone, StatusIrrelevant, StatusLost},
	StatusMeetingDone:      {StatusOfferSent, StatusIrrelevant, StatusLost},
	StatusOfferSent:        {StatusNegotiation, StatusWon, StatusLost},
	StatusNegotiation:      {StatusWon, StatusLost},
	StatusWon:              {},
	StatusLost:             {StatusNewLead},
	StatusIrrelevant:       {StatusNewLead},
}

// Known reports whether s is one of the ten pipeline statuses.
func (s LeadStatus) Known() bool {
	_, ok := pipelineTransitions[s]
	return ok
}

// Terminal reports whether s has no way forward other than a restart.
func (s LeadStatus) Terminal() bool {
	switch s {
	case StatusWon, StatusLost, StatusIrrelevant:
		return true
	}
	return false
}

func ParseLeadStatus(raw string) (LeadStatus, error) {
	s := LeadStatus(raw)
	if !s.Known() {
		return "", fmt.Errorf("unknown lead status %q", raw)
	}
	return s, nil
}

// AllowedNextStates returns the statuses reachable in one step from s.
// It returns an empty slice for won and for unknown statuses.
func AllowedNextStates(s LeadStatus) []LeadStatus {
	next := pipelineTransitions[s]
	out := make([]LeadStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to is an edge of the pipeline table.
func CanTransition(from, to LeadStatus) bool {
	for _, s := range pipelineTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionTable returns a copy of the whole table, keyed by status.
func TransitionTable() map[LeadStatus][]LeadStatus {
	out := make(map[LeadStatus][]LeadStatus, len(pipelineTransitions))
	for from := range pipelineTransitions {
		out[from] = AllowedNextStates(from)
	}
	return out
}
