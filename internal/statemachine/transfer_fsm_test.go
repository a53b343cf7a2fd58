package statemachine

import (
	"context"
	"testing"

	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestTransferFSM_ApproveThenComplete(t *testing.T) {
	transfer := &models.TransferRequest{Status: models.TransferStatusPending}
	machine := NewTransferFSM(transfer)

	assert.NoError(t, machine.Approve(context.Background()))
	assert.Equal(t, models.TransferStatusApproved, transfer.Status)

	assert.NoError(t, machine.Complete(context.Background()))
	assert.Equal(t, models.TransferStatusCompleted, transfer.Status)
}

func TestTransferFSM_CompleteRequiresApproval(t *testing.T) {
	transfer := &models.TransferRequest{Status: models.TransferStatusPending}
	machine := NewTransferFSM(transfer)

	err := machine.Complete(context.Background())

	assert.Error(t, err)
	assert.Equal(t, models.TransferStatusPending, transfer.Status)
}

func TestTransferFSM_RejectFromPending(t *testing.T) {
	transfer := &models.TransferRequest{Status: models.TransferStatusPending}
	machine := NewTransferFSM(transfer)

	assert.NoError(t, machine.Reject(context.Background()))
	assert.Equal(t, models.TransferStatusRejected, transfer.Status)
}

func TestTransferFSM_CancelOnlyWhilePending(t *testing.T) {
	pending := &models.TransferRequest{Status: models.TransferStatusPending}
	assert.NoError(t, NewTransferFSM(pending).Cancel(context.Background()))
	assert.Equal(t, models.TransferStatusCancelled, pending.Status)

	// Once approved the receiving side is committed; cancellation is closed
	approved := &models.TransferRequest{Status: models.TransferStatusApproved}
	assert.Error(t, NewTransferFSM(approved).Cancel(context.Background()))
	assert.Equal(t, models.TransferStatusApproved, approved.Status)
}

func TestTransferFSM_NoTransitionsFromTerminalStates(t *testing.T) {
	terminal := []string{
		models.TransferStatusRejected,
		models.TransferStatusCompleted,
		models.TransferStatusCancelled,
	}

	for _, status := range terminal {
		transfer := &models.TransferRequest{Status: status}
		machine := NewTransferFSM(transfer)

		assert.Error(t, machine.Approve(context.Background()), "approve from %s", status)
		assert.Error(t, machine.Reject(context.Background()), "reject from %s", status)
		assert.Error(t, machine.Complete(context.Background()), "complete from %s", status)
		assert.Error(t, machine.Cancel(context.Background()), "cancel from %s", status)
		assert.Equal(t, status, transfer.Status)
	}
}
