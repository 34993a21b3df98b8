package rotation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peakAPI/internal/types/challenge"
)

func makePool(daily, weekly int) []*challenge.Challenge {
	pool := make([]*challenge.Challenge, 0, daily+weekly)
	for i := 0; i < daily; i++ {
		pool = append(pool, &challenge.Challenge{ID: uuid.New(), Type: "daily", Points: 10})
	}
	for i := 0; i < weekly; i++ {
		pool = append(pool, &challenge.Challenge{ID: uuid.New(), Type: "weekly", Points: 50})
	}
	return pool
}

func TestSelectDeterministic(t *testing.T) {
	pool := makePool(8, 5)

	first := Select(pool, challenge.TypeDaily, "2024-06-10", 2)
	require.Len(t, first, 2)

	for i := 0; i < 10; i++ {
		again := Select(pool, challenge.TypeDaily, "2024-06-10", 2)
		require.Len(t, again, 2)
		assert.Equal(t, first[0].ID, again[0].ID)
		assert.Equal(t, first[1].ID, again[1].ID)
	}
}

func TestSelectPeriodKeyRoundTrip(t *testing.T) {
	pool := makePool(8, 0)

	monday := Select(pool, challenge.TypeDaily, "2024-06-10", 2)
	Select(pool, challenge.TypeDaily, "2024-06-11", 2) // different period may reshuffle
	back := Select(pool, challenge.TypeDaily, "2024-06-10", 2)

	require.Len(t, back, 2)
	assert.Equal(t, monday[0].ID, back[0].ID)
	assert.Equal(t, monday[1].ID, back[1].ID)
}

func TestSelectFiltersByType(t *testing.T) {
	pool := makePool(3, 4)

	weekly := Select(pool, challenge.TypeWeekly, "2024-06-10", 10)
	require.Len(t, weekly, 4)
	for _, ch := range weekly {
		assert.Equal(t, "weekly", ch.Type)
	}
}

func TestSelectTypeCaseInsensitive(t *testing.T) {
	pool := []*challenge.Challenge{
		{ID: uuid.New(), Type: "Daily"},
		{ID: uuid.New(), Type: "DAILY"},
	}

	got := Select(pool, challenge.TypeDaily, "2024-06-10", 5)
	assert.Len(t, got, 2)
}

func TestSelectSmallPoolReturnedWhole(t *testing.T) {
	pool := makePool(1, 0)

	got := Select(pool, challenge.TypeDaily, "2024-06-10", 2)
	require.Len(t, got, 1)
	assert.Equal(t, pool[0].ID, got[0].ID)
}

func TestSelectEmptyPool(t *testing.T) {
	got := Select(nil, challenge.TypeDaily, "2024-06-10", 2)
	assert.Empty(t, got)
}
