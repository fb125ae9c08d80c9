// Package garden manages the user's favorited plants: the saved record
// derived from a catalog entry, its watering schedule and reminders.
package garden

import (
	"strings"

	"github.com/agentstation/utc"

	"github.com/agentstation/plantmap/pkg/catalog"
	"github.com/agentstation/plantmap/pkg/constants"
)

// SavedRecord is a favorited catalog entry plus the fields the user owns.
type SavedRecord struct {
	ID                   int       `json:"id" yaml:"id"`
	CommonName           string    `json:"common_name" yaml:"common_name"`
	ScientificName       string    `json:"scientific_name" yaml:"scientific_name"`
	ImageURL             string    `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	WateringIntervalDays int       `json:"watering_interval_days" yaml:"watering_interval_days"`
	LastWatered          *utc.Time `json:"last_watered,omitempty" yaml:"last_watered,omitempty"`
	Notes                string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	RemindersEnabled     bool      `json:"reminders_enabled" yaml:"reminders_enabled"`
	CreatedAt            utc.Time  `json:"created_at" yaml:"created_at"`
}

// wateringIntervals maps lower-cased watering labels to days.
var wateringIntervals = map[string]int{
	"frequent": 2,
	"average":  4,
	"minimum":  7,
}

// WateringInterval returns the interval in days for a watering label.
// Matching ignores case; unknown or empty labels get the default.
func WateringInterval(label string) int {
	if days, ok := wateringIntervals[strings.ToLower(label)]; ok {
		return days
	}
	return constants.DefaultWateringIntervalDays
}

// FromEntry maps a catalog entry to a new saved record. It has no side
// effects; CreatedAt is left zero for the caller to stamp.
func FromEntry(entry catalog.Entry) SavedRecord {
	return SavedRecord{
		ID:                   entry.ID,
		CommonName:           entry.DisplayName(),
		ScientificName:       entry.ScientificNames(),
		ImageURL:             entry.ImageURL,
		WateringIntervalDays: WateringInterval(entry.Watering),
		RemindersEnabled:     true,
	}
}

// NextWatering returns when the plant is next due. It reports false when
// the plant has never been watered.
func NextWatering(rec SavedRecord) (utc.Time, bool) {
	if rec.LastWatered == nil {
		return utc.Time{}, false
	}
	due := rec.LastWatered.Time.AddDate(0, 0, rec.WateringIntervalDays)
	return utc.New(due), true
}

// Reminder is a watering notification ready to hand to a scheduler.
type Reminder struct {
	ID     int      `json:"id" yaml:"id"`
	Title  string   `json:"title" yaml:"title"`
	Body   string   `json:"body" yaml:"body"`
	FireAt utc.Time `json:"fire_at" yaml:"fire_at"`
}

// ReminderFor builds the watering reminder for rec. It reports false when
// reminders are off or the plant has never been watered.
func ReminderFor(rec SavedRecord) (Reminder, bool) {
	if !rec.RemindersEnabled {
		return Reminder{}, false
	}
	due, ok := NextWatering(rec)
	if !ok {
		return Reminder{}, false
	}
	return Reminder{
		ID:     rec.ID,
		Title:  "Water " + rec.CommonName,
		Body:   "Reminder to water your " + rec.CommonName + ".",
		FireAt: due,
	}, true
}
