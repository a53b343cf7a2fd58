package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/rmejia/labtrack-api/internal/models"
)

// IssueRequestFSM wraps a borrow request with its state machine
type IssueRequestFSM struct {
	request *models.IssueRequest
	fsm     *fsm.FSM
}

// NewIssueRequestFSM creates a new issue request state machine
func NewIssueRequestFSM(request *models.IssueRequest) *IssueRequestFSM {
	rfsm := &IssueRequestFSM{
		request: request,
	}

	rfsm.fsm = fsm.NewFSM(
		request.Status,
		fsm.Events{
			// pending → approved
			{Name: "approve", Src: []string{models.RequestStatusPending}, Dst: models.RequestStatusApproved},

			// pending → rejected
			{Name: "reject", Src: []string{models.RequestStatusPending}, Dst: models.RequestStatusRejected},

			// pending → cancelled (by the requesting user only)
			{Name: "cancel", Src: []string{models.RequestStatusPending}, Dst: models.RequestStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return rfsm
}

// Approve transitions the request to approved state
func (r *IssueRequestFSM) Approve(ctx context.Context) error {
	if !r.request.MayApprove() {
		return fmt.Errorf("request cannot be approved in current state: %s", r.request.Status)
	}

	if err := r.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve request: %w", err)
	}

	r.request.Status = r.fsm.Current()
	return nil
}

// Reject transitions the request to rejected state
func (r *IssueRequestFSM) Reject(ctx context.Context) error {
	if !r.request.MayReject() {
		return fmt.Errorf("request cannot be rejected in current state: %s", r.request.Status)
	}

	if err := r.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject request: %w", err)
	}

	r.request.Status = r.fsm.Current()
	return nil
}

// Cancel transitions the request to cancelled state
func (r *IssueRequestFSM) Cancel(ctx context.Context) error {
	if !r.request.MayCancel() {
		return fmt.Errorf("request cannot be cancelled in current state: %s", r.request.Status)
	}

	if err := r.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel request: %w", err)
	}

	r.request.Status = r.fsm.Current()
	return nil
}

// Current returns the current state
func (r *IssueRequestFSM) Current() string {
	return r.fsm.Current()
}

// Can checks if a transition is possible
func (r *IssueRequestFSM) Can(event string) bool {
	return r.fsm.Can(event)
}
