package garden

import (
	"context"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/plantmap/pkg/catalog"
	"github.com/agentstation/plantmap/pkg/errors"
	"github.com/agentstation/plantmap/pkg/logging"
	"github.com/agentstation/plantmap/pkg/store"
)

// fakeClock is advanced by tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() utc.Time { return utc.New(c.now) }

func newService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	s, err := store.Open(store.Config{Driver: store.DriverBolt, Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	return NewService(s, WithClock(clock.Now), WithLogger(logging.NewNopLogger())), clock
}

func TestFavoriteIsIdempotent(t *testing.T) {
	svc, clock := newService(t)
	ctx := context.Background()
	entry := catalog.Entry{ID: 1, CommonName: "Fir", Watering: "Minimum"}

	rec, err := svc.Favorite(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, 7, rec.WateringIntervalDays)
	assert.True(t, rec.CreatedAt.Time.Equal(clock.now))

	_, err = svc.SetNotes(ctx, 1, "north window")
	require.NoError(t, err)

	clock.now = clock.now.Add(time.Hour)
	again, err := svc.Favorite(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, "north window", again.Notes)
	assert.True(t, again.CreatedAt.Time.Equal(rec.CreatedAt.Time))
}

func TestUnfavorite(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Favorite(ctx, catalog.Entry{ID: 3, CommonName: "Oak"})
	require.NoError(t, err)
	require.NoError(t, svc.Unfavorite(ctx, 3))

	_, err = svc.Get(ctx, 3)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(svc.Unfavorite(ctx, 3)))
}

func TestListSortedByNameThenID(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for _, e := range []catalog.Entry{
		{ID: 5, CommonName: "oak"},
		{ID: 2, CommonName: "Fir"},
		{ID: 9, CommonName: "Aloe"},
		{ID: 1, CommonName: "Oak"},
	} {
		_, err := svc.Favorite(ctx, e)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	var ids []int
	for _, rec := range list {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []int{9, 2, 1, 5}, ids)
}

func TestUpdates(t *testing.T) {
	svc, clock := newService(t)
	ctx := context.Background()
	_, err := svc.Favorite(ctx, catalog.Entry{ID: 4, CommonName: "Basil", Watering: "frequent"})
	require.NoError(t, err)

	rec, err := svc.Water(ctx, 4)
	require.NoError(t, err)
	require.NotNil(t, rec.LastWatered)
	assert.True(t, rec.LastWatered.Time.Equal(clock.now))

	rec, err = svc.SetInterval(ctx, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.WateringIntervalDays)

	_, err = svc.SetInterval(ctx, 4, 0)
	assert.True(t, errors.IsValidationError(err))

	rec, err = svc.SetReminders(ctx, 4, false)
	require.NoError(t, err)
	assert.False(t, rec.RemindersEnabled)

	stored, err := svc.Get(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.WateringIntervalDays)
	assert.False(t, stored.RemindersEnabled)
	require.NotNil(t, stored.LastWatered)
	assert.True(t, stored.LastWatered.Time.Equal(clock.now))

	_, err = svc.Water(ctx, 404)
	assert.True(t, errors.IsNotFound(err))
}

func TestScheduleOrderingAndExclusion(t *testing.T) {
	svc, clock := newService(t)
	ctx := context.Background()

	for _, e := range []catalog.Entry{
		{ID: 1, CommonName: "Cactus", Watering: "minimum"},
		{ID: 2, CommonName: "Basil", Watering: "frequent"},
		{ID: 3, CommonName: "Never Watered"},
	} {
		_, err := svc.Favorite(ctx, e)
		require.NoError(t, err)
	}

	_, err := svc.Water(ctx, 1)
	require.NoError(t, err)
	_, err = svc.Water(ctx, 2)
	require.NoError(t, err)

	clock.now = clock.now.Add(3 * 24 * time.Hour)
	items, err := svc.Schedule(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, 2, items[0].Plant.ID)
	assert.True(t, items[0].Overdue)
	assert.Equal(t, 1, items[1].Plant.ID)
	assert.False(t, items[1].Overdue)

	reminders, err := svc.Reminders(ctx)
	require.NoError(t, err)
	require.Len(t, reminders, 2)
	assert.Equal(t, "Water Basil", reminders[0].Title)

	_, err = svc.SetReminders(ctx, 2, false)
	require.NoError(t, err)
	reminders, err = svc.Reminders(ctx)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, 1, reminders[0].ID)
}
