package statemachine

import (
	"context"
	"fmt"

	"github.com/edupulse/emis-api/internal/models"
	"github.com/looplab/fsm"
)

// Submission actions. Owners submit, reviewers (or the system actor)
// approve, reject or return.
const (
	ActionSubmit  = "submit"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionReturn  = "return"
)

// IllegalTransitionError reports an action that is not valid from the
// submission's current state. It is always surfaced, never swallowed.
type IllegalTransitionError struct {
	State  string
	Action string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot %s submission in state %q", e.Action, e.State)
}

// Transition is the old/new status pair of a successful event. The caller
// builds the audit record from it and persists both.
type Transition struct {
	From string
	To   string
}

// SubmissionFSM wraps a submission with its state machine. The machine
// performs no I/O: it mutates only the in-memory submission and the caller
// is responsible for persistence.
type SubmissionFSM struct {
	submission *models.Submission
	fsm        *fsm.FSM
}

// NewSubmissionFSM creates a state machine seeded with the submission's
// current status.
func NewSubmissionFSM(submission *models.Submission) *SubmissionFSM {
	sfsm := &SubmissionFSM{
		submission: submission,
	}

	sfsm.fsm = fsm.NewFSM(
		submission.Status,
		fsm.Events{
			// draft/returned → pending
			{Name: ActionSubmit, Src: []string{models.SubmissionStatusDraft, models.SubmissionStatusReturned}, Dst: models.SubmissionStatusPending},

			// pending → approved
			{Name: ActionApprove, Src: []string{models.SubmissionStatusPending}, Dst: models.SubmissionStatusApproved},

			// pending → rejected
			{Name: ActionReject, Src: []string{models.SubmissionStatusPending}, Dst: models.SubmissionStatusRejected},

			// pending → returned (back to the owner for correction)
			{Name: ActionReturn, Src: []string{models.SubmissionStatusPending}, Dst: models.SubmissionStatusReturned},
		},
		fsm.Callbacks{},
	)

	return sfsm
}

// Apply runs the given action, returning the old/new status pair. Any
// action not legal from the current state fails with IllegalTransitionError
// and leaves the submission unchanged.
func (m *SubmissionFSM) Apply(ctx context.Context, action string) (Transition, error) {
	from := m.fsm.Current()
	if !m.fsm.Can(action) {
		return Transition{}, &IllegalTransitionError{State: from, Action: action}
	}

	if err := m.fsm.Event(ctx, action); err != nil {
		return Transition{}, &IllegalTransitionError{State: from, Action: action}
	}

	m.submission.Status = m.fsm.Current()
	return Transition{From: from, To: m.fsm.Current()}, nil
}

// Submit transitions the submission to pending
func (m *SubmissionFSM) Submit(ctx context.Context) (Transition, error) {
	return m.Apply(ctx, ActionSubmit)
}

// Approve transitions the submission to approved
func (m *SubmissionFSM) Approve(ctx context.Context) (Transition, error) {
	return m.Apply(ctx, ActionApprove)
}

// Reject transitions the submission to rejected
func (m *SubmissionFSM) Reject(ctx context.Context) (Transition, error) {
	return m.Apply(ctx, ActionReject)
}

// Return transitions the submission back to the owner
func (m *SubmissionFSM) Return(ctx context.Context) (Transition, error) {
	return m.Apply(ctx, ActionReturn)
}

// Current returns the current state
func (m *SubmissionFSM) Current() string {
	return m.fsm.Current()
}

// Can checks if a transition is possible
func (m *SubmissionFSM) Can(action string) bool {
	return m.fsm.Can(action)
}

// AvailableActions lists the actions legal from the current state
func (m *SubmissionFSM) AvailableActions() []string {
	var actions []string
	for _, action := range []string{ActionSubmit, ActionApprove, ActionReject, ActionReturn} {
		if m.fsm.Can(action) {
			actions = append(actions, action)
		}
	}
	return actions
}
