package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusDone, StatusFailed} {
		assert.True(t, s.Valid(), "status %s should be valid", s)
	}

	assert.False(t, Status("error").Valid())
	assert.False(t, Status("").Valid())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"claim", StatusPending, StatusProcessing, true},
		{"finish", StatusProcessing, StatusDone, true},
		{"fail", StatusProcessing, StatusFailed, true},
		{"manual requeue", StatusFailed, StatusPending, true},

		{"skip processing", StatusPending, StatusDone, false},
		{"fail without claim", StatusPending, StatusFailed, false},
		{"done is final", StatusDone, StatusPending, false},
		{"done cannot fail", StatusDone, StatusFailed, false},
		{"failed cannot finish", StatusFailed, StatusDone, false},
		{"no automatic reclaim of orphaned tasks", StatusProcessing, StatusPending, false},
		{"unknown status", Status("error"), StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusDone.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
}
