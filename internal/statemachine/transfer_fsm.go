package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/rmejia/labtrack-api/internal/models"
)

// TransferFSM wraps a transfer request with its state machine
type TransferFSM struct {
	transfer *models.TransferRequest
	fsm      *fsm.FSM
}

// NewTransferFSM creates a new transfer request state machine
func NewTransferFSM(transfer *models.TransferRequest) *TransferFSM {
	tfsm := &TransferFSM{
		transfer: transfer,
	}

	tfsm.fsm = fsm.NewFSM(
		transfer.Status,
		fsm.Events{
			// pending → approved (by the receiving department's incharge)
			{Name: "approve", Src: []string{models.TransferStatusPending}, Dst: models.TransferStatusApproved},

			// pending → rejected
			{Name: "reject", Src: []string{models.TransferStatusPending}, Dst: models.TransferStatusRejected},

			// approved → completed (custody actually moves)
			{Name: "complete", Src: []string{models.TransferStatusApproved}, Dst: models.TransferStatusCompleted},

			// pending → cancelled
			{Name: "cancel", Src: []string{models.TransferStatusPending}, Dst: models.TransferStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return tfsm
}

// Approve transitions the transfer to approved state
func (t *TransferFSM) Approve(ctx context.Context) error {
	if !t.transfer.MayApprove() {
		return fmt.Errorf("transfer cannot be approved in current state: %s", t.transfer.Status)
	}

	if err := t.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve transfer: %w", err)
	}

	t.transfer.Status = t.fsm.Current()
	return nil
}

// Reject transitions the transfer to rejected state
func (t *TransferFSM) Reject(ctx context.Context) error {
	if !t.transfer.MayReject() {
		return fmt.Errorf("transfer cannot be rejected in current state: %s", t.transfer.Status)
	}

	if err := t.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject transfer: %w", err)
	}

	t.transfer.Status = t.fsm.Current()
	return nil
}

// Complete transitions the transfer to completed state
func (t *TransferFSM) Complete(ctx context.Context) error {
	if !t.transfer.MayComplete() {
		return fmt.Errorf("transfer cannot be completed in current state: %s", t.transfer.Status)
	}

	if err := t.fsm.Event(ctx, "complete"); err != nil {
		return fmt.Errorf("failed to complete transfer: %w", err)
	}

	t.transfer.Status = t.fsm.Current()
	return nil
}

// Cancel transitions the transfer to cancelled state
func (t *TransferFSM) Cancel(ctx context.Context) error {
	if !t.transfer.MayCancel() {
		return fmt.Errorf("transfer cannot be cancelled in current state: %s", t.transfer.Status)
	}

	if err := t.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel transfer: %w", err)
	}

	t.transfer.Status = t.fsm.Current()
	return nil
}

// Current returns the current state
func (t *TransferFSM) Current() string {
	return t.fsm.Current()
}

// Can checks if a transition is possible
func (t *TransferFSM) Can(event string) bool {
	return t.fsm.Can(event)
}
