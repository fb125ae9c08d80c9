// Package catalog holds the plant catalog model: entries, pages and
// snapshots, plus the local search used once a full snapshot is resident.
package catalog

import (
	"strings"

	"github.com/agentstation/plantmap/pkg/constants"
)

// Entry is one record of the remote plant catalog. Only ID is required;
// every other field may be empty.
type Entry struct {
	ID             int      `json:"id" yaml:"id"`
	CommonName     string   `json:"common_name,omitempty" yaml:"common_name,omitempty"`
	ScientificName []string `json:"scientific_name,omitempty" yaml:"scientific_name,omitempty"`
	Watering       string   `json:"watering,omitempty" yaml:"watering,omitempty"`
	ImageURL       string   `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// DisplayName returns the common name, or a placeholder when absent.
func (e Entry) DisplayName() string {
	if strings.TrimSpace(e.CommonName) == "" {
		return constants.UnknownPlantName
	}
	return e.CommonName
}

// ScientificNames joins all scientific names for display.
func (e Entry) ScientificNames() string {
	return strings.Join(e.ScientificName, ", ")
}

// Page is one page of the remote catalog. An empty page means the
// catalog has no more data for the current query.
type Page struct {
	Number  int
	Entries []Entry
}

// Empty reports whether the page carries no entries.
func (p Page) Empty() bool {
	return len(p.Entries) == 0
}

// Snapshot is the ordered accumulation of entries fetched so far.
// Order is page order; identities are not de-duplicated.
type Snapshot []Entry

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for i, e := range s {
		out[i] = e
		if e.ScientificName != nil {
			out[i].ScientificName = append([]string(nil), e.ScientificName...)
		}
	}
	return out
}

// IndexOf returns the position of the first entry with id, or -1.
func (s Snapshot) IndexOf(id int) int {
	for i, e := range s {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the first entry with id.
func (s Snapshot) Find(id int) (Entry, bool) {
	if i := s.IndexOf(id); i >= 0 {
		return s[i], true
	}
	return Entry{}, false
}
