package garden

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap/pkg/catalog"
	"github.com/agentstation/plantmap/pkg/errors"
	"github.com/agentstation/plantmap/pkg/logging"
	"github.com/agentstation/plantmap/pkg/store"
)

// Service stores saved records in the Local Store under store.KindFavorite.
type Service struct {
	store  store.Store
	now    func() utc.Time
	logger *zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() utc.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a garden service over s.
func NewService(s store.Store, opts ...Option) *Service {
	svc := &Service{store: s, now: utc.Now}
	for _, opt := range opts {
		opt(svc)
	}
	svc.logger = logging.OrDefault(svc.logger)
	return svc
}

func key(id int) string {
	return strconv.Itoa(id)
}

// Favorite saves entry. Favoriting an already saved plant returns the
// existing record unchanged so user-owned fields survive.
func (s *Service) Favorite(ctx context.Context, entry catalog.Entry) (SavedRecord, error) {
	existing, err := s.Get(ctx, entry.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.IsNotFound(err) {
		return SavedRecord{}, err
	}

	rec := FromEntry(entry)
	rec.CreatedAt = s.now()
	if err := s.put(ctx, rec); err != nil {
		return SavedRecord{}, err
	}
	s.logger.Info().Int("plant_id", rec.ID).Str("name", rec.CommonName).Msg("Added plant to garden")
	return rec, nil
}

// Unfavorite removes the saved record for id.
func (s *Service) Unfavorite(ctx context.Context, id int) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, store.KindFavorite, key(id)); err != nil {
		return err
	}
	s.logger.Info().Int("plant_id", id).Msg("Removed plant from garden")
	return nil
}

// Get returns the saved record for id or an *errors.NotFoundError.
func (s *Service) Get(ctx context.Context, id int) (SavedRecord, error) {
	var rec SavedRecord
	if err := s.store.Get(ctx, store.KindFavorite, key(id), &rec); err != nil {
		if errors.IsNotFound(err) {
			return SavedRecord{}, errors.NewNotFoundError("plant", key(id))
		}
		return SavedRecord{}, err
	}
	return rec, nil
}

// List returns all saved records sorted by name, then ID.
func (s *Service) List(ctx context.Context) ([]SavedRecord, error) {
	records, err := store.FetchWhere[SavedRecord](ctx, s.store, store.KindFavorite, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := strings.ToLower(records[i].CommonName), strings.ToLower(records[j].CommonName)
		if a != b {
			return a < b
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// Water records that the plant was watered now.
func (s *Service) Water(ctx context.Context, id int) (SavedRecord, error) {
	return s.update(ctx, id, func(rec *SavedRecord) error {
		now := s.now()
		rec.LastWatered = &now
		return nil
	})
}

// SetNotes replaces the free-text notes.
func (s *Service) SetNotes(ctx context.Context, id int, notes string) (SavedRecord, error) {
	return s.update(ctx, id, func(rec *SavedRecord) error {
		rec.Notes = notes
		return nil
	})
}

// SetInterval changes the watering interval. days must be at least 1.
func (s *Service) SetInterval(ctx context.Context, id, days int) (SavedRecord, error) {
	if days < 1 {
		return SavedRecord{}, errors.NewValidationError("days", days, "must be >= 1")
	}
	return s.update(ctx, id, func(rec *SavedRecord) error {
		rec.WateringIntervalDays = days
		return nil
	})
}

// SetReminders turns watering reminders on or off.
func (s *Service) SetReminders(ctx context.Context, id int, enabled bool) (SavedRecord, error) {
	return s.update(ctx, id, func(rec *SavedRecord) error {
		rec.RemindersEnabled = enabled
		return nil
	})
}

// ScheduleItem is one upcoming watering.
type ScheduleItem struct {
	Plant   SavedRecord `json:"plant" yaml:"plant"`
	Due     utc.Time    `json:"due" yaml:"due"`
	Overdue bool        `json:"overdue" yaml:"overdue"`
}

// Schedule lists the next watering of every plant that has been watered
// at least once, earliest first.
func (s *Service) Schedule(ctx context.Context) ([]ScheduleItem, error) {
	records, err := store.FetchWhere(ctx, s.store, store.KindFavorite, func(rec SavedRecord) bool {
		return rec.LastWatered != nil
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]ScheduleItem, 0, len(records))
	for _, rec := range records {
		due, _ := NextWatering(rec)
		items = append(items, ScheduleItem{Plant: rec, Due: due, Overdue: due.Time.Before(now.Time)})
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Due.Time, items[j].Due.Time
		if !a.Equal(b) {
			return a.Before(b)
		}
		return items[i].Plant.ID < items[j].Plant.ID
	})
	return items, nil
}

// Reminders returns the pending reminder of every plant that has one.
func (s *Service) Reminders(ctx context.Context) ([]Reminder, error) {
	items, err := s.Schedule(ctx)
	if err != nil {
		return nil, err
	}
	var out []Reminder
	for _, item := range items {
		if r, ok := ReminderFor(item.Plant); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) update(ctx context.Context, id int, mutate func(*SavedRecord) error) (SavedRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return SavedRecord{}, err
	}
	if err := mutate(&rec); err != nil {
		return SavedRecord{}, err
	}
	if err := s.put(ctx, rec); err != nil {
		return SavedRecord{}, err
	}
	return rec, nil
}

func (s *Service) put(ctx context.Context, rec SavedRecord) error {
	return s.store.Put(ctx, store.KindFavorite, key(rec.ID), rec)
}
