package till

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessDay_OpenClose(t *testing.T) {
	day, err := NewBusinessDay(uuid.New(), testNow)
	require.NoError(t, err)
	assert.Equal(t, testDate, day.Date)
	assert.Equal(t, DayStatusClosed, day.Status)
	assert.Error(t, day.RequireOpen())

	by := uuid.New()
	require.NoError(t, day.Open(by, "  morning  ", testNow))
	assert.True(t, day.IsOpen())
	assert.Equal(t, "morning", day.OpenNotes)

	err = day.Open(by, "", testNow)
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))

	require.NoError(t, day.Close(by, "", testNow))
	assert.Equal(t, DayStatusClosed, day.Status)

	events := day.GetDomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeBusinessDayOpened, events[0].EventType())
	assert.Equal(t, EventTypeBusinessDayClosed, events[1].EventType())
}

func TestBusinessDay_CloseOnClosedDay(t *testing.T) {
	day, err := NewBusinessDay(uuid.New(), testNow)
	require.NoError(t, err)
	version := day.Version

	err = day.Close(uuid.New(), "", testNow)

	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidTransition, shared.CodeOf(err))
	assert.Equal(t, DayStatusClosed, day.Status)
	assert.Nil(t, day.ClosedAt)
	assert.Equal(t, version, day.Version)
	assert.Empty(t, day.GetDomainEvents())
}

func TestCarryForwardFrom(t *testing.T) {
	previous, err := NewBusinessDay(uuid.New(), testDate)
	require.NoError(t, err)
	require.NoError(t, previous.Open(uuid.New(), "float in", testNow))

	nextDate := testDate.AddDate(0, 0, 1)
	rollAt := nextDate.Add(5 * time.Minute)
	next, err := CarryForwardFrom(previous, nextDate, rollAt)
	require.NoError(t, err)

	assert.True(t, next.IsOpen())
	assert.True(t, next.CarriedForward)
	assert.Equal(t, previous.ShopID, next.ShopID)
	assert.Equal(t, previous.OpenedBy, next.OpenedBy)
	assert.Contains(t, next.OpenNotes, "2026-03-02")

	assert.Equal(t, DayStatusClosed, previous.Status)
	require.NotNil(t, previous.RolledOverTo)
	assert.Equal(t, nextDate, *previous.RolledOverTo)

	err = previous.Open(uuid.New(), "", rollAt)
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))

	t.Run("only open days roll over", func(t *testing.T) {
		_, err := CarryForwardFrom(previous, nextDate.AddDate(0, 0, 1), rollAt)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	})
}
