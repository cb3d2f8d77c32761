package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	testCases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusReady, true},
		{StatusPending, StatusSkipped, true},
		{StatusPending, StatusRunning, false},
		{StatusReady, StatusRunning, true},
		{StatusReady, StatusComplete, true},
		{StatusReady, StatusFailed, true},
		{StatusRunning, StatusComplete, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusSkipped, false},
		{StatusComplete, StatusRunning, false},
		{StatusFailed, StatusComplete, false},
		{StatusSkipped, StatusReady, false},
	}
	for _, tc := range testCases {
		t.Run(tc.from.String()+"->"+tc.to.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusComplete.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusSkipped.Terminal())
}
