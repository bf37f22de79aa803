package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChallengeWindow(t *testing.T) {
	now := time.Date(2025, 3, 21, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		active   bool
		startsAt time.Time
		endsAt   *time.Time
		want     WindowState
	}{
		{"open without end", true, yesterday, nil, WindowOpen},
		{"open until tomorrow", true, yesterday, &tomorrow, WindowOpen},
		{"starts exactly now", true, now, nil, WindowOpen},
		{"ends exactly now", true, yesterday, &now, WindowOpen},
		{"not started", true, tomorrow, nil, WindowNotStarted},
		{"ended", true, yesterday.Add(-time.Hour), &yesterday, WindowEnded},
		{"inactive inside window", false, yesterday, &tomorrow, WindowInactive},
		{"inactive and ended", false, yesterday.Add(-time.Hour), &yesterday, WindowInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Challenge{IsActive: tt.active, StartsAt: tt.startsAt, EndsAt: tt.endsAt}
			assert.Equal(t, tt.want, c.WindowState(now))
			assert.Equal(t, tt.want == WindowOpen, c.IsOpenForSubmission(now))
		})
	}
}

func TestWindowStateMessage(t *testing.T) {
	assert.Equal(t, "challenge has ended", WindowEnded.Message())
	assert.Equal(t, "challenge has not started yet", WindowNotStarted.Message())
	assert.Equal(t, "challenge is not active", WindowInactive.Message())
}
