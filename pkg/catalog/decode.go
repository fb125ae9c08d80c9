package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/agentstation/plantmap/pkg/errors"
)

// wireEntry mirrors a species-list record. Every field is kept raw so a
// malformed value only drops that field.
type wireEntry struct {
	ID             json.RawMessage `json:"id"`
	CommonName     json.RawMessage `json:"common_name"`
	ScientificName json.RawMessage `json:"scientific_name"`
	Watering       json.RawMessage `json:"watering"`
	DefaultImage   json.RawMessage `json:"default_image"`
}

type wireImage struct {
	OriginalURL json.RawMessage `json:"original_url"`
	RegularURL  json.RawMessage `json:"regular_url"`
}

// DecodePage decodes a species-list response body. A missing or null
// data array yields an empty page. Records without a usable id are
// skipped and reported through the skipped count; they never fail the page.
func DecodePage(number int, body []byte) (Page, int, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Page{}, 0, errors.WrapParse("json", "species list", err)
	}

	page := Page{Number: number}
	if isNull(envelope.Data) {
		return page, 0, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(envelope.Data, &raw); err != nil {
		return Page{}, 0, errors.WrapParse("json", "species list data", err)
	}

	skipped := 0
	page.Entries = make([]Entry, 0, len(raw))
	for _, r := range raw {
		entry, ok := DecodeEntry(r)
		if !ok {
			skipped++
			continue
		}
		page.Entries = append(page.Entries, entry)
	}
	return page, skipped, nil
}

// DecodeEntry decodes one record leniently. It reports false only when the
// record is not an object or carries no numeric identity.
func DecodeEntry(raw json.RawMessage) (Entry, bool) {
	var w wireEntry
	if err := json.Unmarshal(raw, &w); err != nil {
		return Entry{}, false
	}

	id, ok := decodeID(w.ID)
	if !ok {
		return Entry{}, false
	}

	entry := Entry{
		ID:             id,
		CommonName:     decodeString(w.CommonName),
		ScientificName: decodeStrings(w.ScientificName),
		Watering:       decodeString(w.Watering),
	}

	if !isNull(w.DefaultImage) {
		var img wireImage
		if json.Unmarshal(w.DefaultImage, &img) == nil {
			entry.ImageURL = decodeString(img.OriginalURL)
			if entry.ImageURL == "" {
				entry.ImageURL = decodeString(img.RegularURL)
			}
		}
	}

	return entry, true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeID(raw json.RawMessage) (int, bool) {
	if isNull(raw) {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if id, err := strconv.Atoi(n.String()); err == nil {
			return id, true
		}
		return 0, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return id, true
		}
	}
	return 0, false
}

func decodeString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// decodeStrings accepts a single string or a list; non-string list items
// are dropped.
func decodeStrings(raw json.RawMessage) []string {
	if isNull(raw) {
		return nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one == "" {
			return nil
		}
		return []string{one}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var out []string
	for _, item := range items {
		if s := decodeString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
