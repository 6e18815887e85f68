package models_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rfphub/models"
)

func TestRFPTransitions(t *testing.T) {
	require.True(t, models.CanRFPTransition(models.RFPDraft, models.RFPPublished))
	require.True(t, models.CanRFPTransition(models.RFPPublished, models.RFPClosed))

	require.False(t, models.CanRFPTransition(models.RFPDraft, models.RFPClosed))
	require.False(t, models.CanRFPTransition(models.RFPPublished, models.RFPPublished))
	require.False(t, models.CanRFPTransition(models.RFPPublished, models.RFPDraft))
	require.False(t, models.CanRFPTransition(models.RFPClosed, models.RFPPublished))

	// cancelled is a dead end on both sides of the table
	require.False(t, models.CanRFPTransition(models.RFPCancelled, models.RFPPublished))
	require.False(t, models.CanRFPTransition(models.RFPDraft, models.RFPCancelled))
}

func TestResponseTransitions(t *testing.T) {
	require.True(t, models.CanResponseTransition(models.ResponseDraft, models.ResponseSubmitted))
	require.True(t, models.CanResponseTransition(models.ResponseSubmitted, models.ResponseUnderReview))
	require.True(t, models.CanResponseTransition(models.ResponseSubmitted, models.ResponseApproved))
	require.True(t, models.CanResponseTransition(models.ResponseSubmitted, models.ResponseRejected))
	require.True(t, models.CanResponseTransition(models.ResponseUnderReview, models.ResponseApproved))
	require.True(t, models.CanResponseTransition(models.ResponseUnderReview, models.ResponseRejected))

	require.False(t, models.CanResponseTransition(models.ResponseDraft, models.ResponseApproved))
	require.False(t, models.CanResponseTransition(models.ResponseApproved, models.ResponseRejected))
	require.False(t, models.CanResponseTransition(models.ResponseRejected, models.ResponseDraft))
	require.False(t, models.CanResponseTransition(models.ResponseSubmitted, models.ResponseDraft))
}

func TestValidStatuses(t *testing.T) {
	require.True(t, models.ValidRFPStatus("draft"))
	require.True(t, models.ValidRFPStatus("cancelled"))
	require.False(t, models.ValidRFPStatus("archived"))

	require.True(t, models.ValidResponseStatus("under_review"))
	require.False(t, models.ValidResponseStatus("withdrawn"))
}

func TestResponseTerminal(t *testing.T) {
	require.True(t, models.ResponseTerminal(models.ResponseApproved))
	require.True(t, models.ResponseTerminal(models.ResponseRejected))
	require.False(t, models.ResponseTerminal(models.ResponseSubmitted))
	require.False(t, models.ResponseTerminal(models.ResponseDraft))
}
