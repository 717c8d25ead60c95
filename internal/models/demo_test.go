package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestDeriveLifecycleState(t *testing.T) {
	approve := &Review{ReviewerID: "t-1", Decision: DecisionApprove, Rating: intPtr(4)}
	reject := &Review{ReviewerID: "t-1", Decision: DecisionReject, Feedback: "redo"}

	cases := []struct {
		name     string
		trainer  *Review
		master   *Review
		expected LifecycleState
	}{
		{"no reviews", nil, nil, StateUnderTrainerReview},
		{"trainer rejected", reject, nil, StateTrainerRejected},
		{"trainer approved", approve, nil, StateTrainerApproved},
		{"master rejected", approve, reject, StateMasterRejected},
		{"fully approved", approve, approve, StateApproved},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, DeriveLifecycleState(tc.trainer, tc.master))
		})
	}
}

func TestLifecycleStateTerminal(t *testing.T) {
	require.False(t, StateUnderTrainerReview.Terminal())
	require.False(t, StateTrainerApproved.Terminal())
	require.True(t, StateTrainerRejected.Terminal())
	require.True(t, StateMasterRejected.Terminal())
	require.True(t, StateApproved.Terminal())
	require.True(t, StateWithdrawn.Terminal())
}
