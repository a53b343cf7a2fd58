package statemachine

import (
	"context"
	"testing"

	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestIssueRequestFSM_ApproveFromPending(t *testing.T) {
	request := &models.IssueRequest{Status: models.RequestStatusPending}
	machine := NewIssueRequestFSM(request)

	err := machine.Approve(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, request.Status)
	assert.Equal(t, models.RequestStatusApproved, machine.Current())
}

func TestIssueRequestFSM_RejectFromPending(t *testing.T) {
	request := &models.IssueRequest{Status: models.RequestStatusPending}
	machine := NewIssueRequestFSM(request)

	err := machine.Reject(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, request.Status)
}

func TestIssueRequestFSM_CancelFromPending(t *testing.T) {
	request := &models.IssueRequest{Status: models.RequestStatusPending}
	machine := NewIssueRequestFSM(request)

	err := machine.Cancel(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusCancelled, request.Status)
}

func TestIssueRequestFSM_NoTransitionsFromTerminalStates(t *testing.T) {
	terminal := []string{
		models.RequestStatusApproved,
		models.RequestStatusRejected,
		models.RequestStatusCancelled,
	}

	for _, status := range terminal {
		request := &models.IssueRequest{Status: status}
		machine := NewIssueRequestFSM(request)

		assert.Error(t, machine.Approve(context.Background()), "approve from %s", status)
		assert.Error(t, machine.Reject(context.Background()), "reject from %s", status)
		assert.Error(t, machine.Cancel(context.Background()), "cancel from %s", status)

		// Failed transitions must not corrupt the stored status
		assert.Equal(t, status, request.Status)
	}
}

func TestIssueRequestFSM_Can(t *testing.T) {
	pending := NewIssueRequestFSM(&models.IssueRequest{Status: models.RequestStatusPending})
	assert.True(t, pending.Can("approve"))
	assert.True(t, pending.Can("reject"))
	assert.True(t, pending.Can("cancel"))

	approved := NewIssueRequestFSM(&models.IssueRequest{Status: models.RequestStatusApproved})
	assert.False(t, approved.Can("approve"))
	assert.False(t, approved.Can("cancel"))
}
