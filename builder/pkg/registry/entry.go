package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entry is the publishable description of one application. Field order is the key order of the
// published document.
type Entry struct {
	Name   string          `json:"name"`
	Paths  json.RawMessage `json:"paths"`
	URL    string          `json:"url"`
	Module string          `json:"module"`
}

// NewEntry projects a validated manifest into a registry entry.
func NewEntry(cfg Config, m *Manifest) Entry {
	return Entry{
		Name:   m.MFE.Name,
		Paths:  m.MFE.Paths,
		URL:    cfg.AssetURL(m.MFE.Name, m.Files[m.EntryFile()]),
		Module: m.MFE.Module,
	}
}

// MarshalDocument serializes entries as a compact JSON array. Output has no HTML escaping and no
// trailing newline, so equal entries always produce identical bytes. No entries yields "[]".
// U+2028 and U+2029 are always written as \u2028 and \u2029, which parses to the same strings.
func MarshalDocument(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("unable to serialize registry: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalDocument parses a published registry document.
func UnmarshalDocument(data []byte) ([]Entry, error) {
	entries := []Entry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unable to parse registry document: %w", err)
	}
	return entries, nil
}
