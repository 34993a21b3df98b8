package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldResetNeverResetBefore(t *testing.T) {
	assert.True(t, shouldReset(nil, time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)))
}

func TestShouldResetMarkerInsideCurrentWeek(t *testing.T) {
	now := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)           // Wednesday
	last := time.Date(2024, 6, 10, 0, 0, 5, 0, time.UTC)           // this Monday, just after midnight
	assert.False(t, shouldReset(&last, now))
}

func TestShouldResetMarkerFromLastWeek(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 1, 0, time.UTC)            // Monday just past midnight
	last := time.Date(2024, 6, 3, 0, 0, 2, 0, time.UTC)            // previous Monday
	assert.True(t, shouldReset(&last, now))
}

func TestShouldResetAfterLongDowntime(t *testing.T) {
	// Process was down for three weeks spanning several Mondays; the
	// startup check must still fire exactly one reset.
	now := time.Date(2024, 7, 3, 9, 0, 0, 0, time.UTC)
	last := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	assert.True(t, shouldReset(&last, now))
}

func TestShouldResetMarkerExactlyAtWeekStart(t *testing.T) {
	now := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)
	last := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC) // exactly Monday 00:00
	assert.False(t, shouldReset(&last, now))
}
