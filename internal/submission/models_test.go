package submission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplicationStatusTransitions(t *testing.T) {
	tests := []struct {
		from ApplicationStatus
		to   ApplicationStatus
		want bool
	}{
		{StatusReceived, StatusUnderReview, true},
		{StatusReceived, StatusWithdrawn, true},
		{StatusReceived, StatusReceived, false},
		{StatusUnderReview, StatusRequiresAction, true},
		{StatusUnderReview, StatusReceived, false},
		{StatusRequiresAction, StatusUnderReview, true},
		{StatusRequiresAction, StatusApproved, true},
		{StatusApproved, StatusUnderReview, false},
		{StatusRejected, StatusWithdrawn, false},
		{StatusWithdrawn, StatusUnderReview, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestApplicationStatusTerminal(t *testing.T) {
	for _, s := range []ApplicationStatus{StatusApproved, StatusRejected, StatusWithdrawn} {
		assert.True(t, s.Terminal(), "%s", s)
	}
	for _, s := range []ApplicationStatus{StatusReceived, StatusUnderReview, StatusRequiresAction} {
		assert.False(t, s.Terminal(), "%s", s)
	}
}

func TestParseStatus(t *testing.T) {
	status, ok := ParseStatus("under_review")
	assert.True(t, ok)
	assert.Equal(t, StatusUnderReview, status)

	_, ok = ParseStatus("lost_in_the_mail")
	assert.False(t, ok)

	_, ok = ParseStatus("")
	assert.False(t, ok)
}
