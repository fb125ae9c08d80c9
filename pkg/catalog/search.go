package catalog

import (
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
)

// Filter returns the entries whose common or scientific name contains
// query, compared with Unicode case folding. An empty query returns the
// snapshot unchanged. The input is never modified.
func Filter(entries Snapshot, query string) Snapshot {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}

	folder := cases.Fold()
	needle := folder.String(query)

	out := make(Snapshot, 0)
	for _, e := range entries {
		if strings.Contains(folder.String(e.CommonName), needle) {
			out = append(out, e)
			continue
		}
		for _, name := range e.ScientificName {
			if strings.Contains(folder.String(name), needle) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// searchSource adapts a snapshot to fuzzy.Source using both names.
type searchSource Snapshot

func (s searchSource) String(i int) string {
	e := s[i]
	if len(e.ScientificName) == 0 {
		return e.CommonName
	}
	return e.CommonName + " " + strings.Join(e.ScientificName, " ")
}

func (s searchSource) Len() int { return len(s) }

// Rank returns entries that fuzzily match query, best match first.
// An empty query returns the snapshot unchanged.
func Rank(entries Snapshot, query string) Snapshot {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}

	matches := fuzzy.FindFrom(query, searchSource(entries))
	out := make(Snapshot, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}
