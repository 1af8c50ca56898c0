package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Manifest is the descriptor each application publishes next to its assets.
type Manifest struct {
	MFE *ManifestMFE `json:"mfe"`
	// Files maps logical asset names to the cache-busted names they were deployed as.
	Files map[string]string `json:"files"`
}

type ManifestMFE struct {
	Name string `json:"name"`
	// Paths describes where the application is mounted. It is passed through untouched.
	Paths  json.RawMessage `json:"paths"`
	Module string          `json:"module"`
}

// ParseManifest decodes and validates a manifest. Every error wraps ErrInvalidManifest.
func ParseManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// EntryFile is the logical name of the file an application is loaded from.
func (m *Manifest) EntryFile() string {
	return m.MFE.Name + ".js"
}

// Validate checks every field the registry entry is derived from and reports all that are missing.
func (m *Manifest) Validate() error {
	if m.MFE == nil {
		return fmt.Errorf("%w: missing field \"mfe\"", ErrInvalidManifest)
	}
	missing := []string{}
	if m.MFE.Name == "" {
		missing = append(missing, "mfe.name")
	}
	if p := bytes.TrimSpace(m.MFE.Paths); len(p) == 0 || bytes.Equal(p, []byte("null")) {
		missing = append(missing, "mfe.paths")
	}
	if m.MFE.Module == "" {
		missing = append(missing, "mfe.module")
	}
	if m.MFE.Name != "" && m.Files[m.EntryFile()] == "" {
		missing = append(missing, fmt.Sprintf("files[%q]", m.EntryFile()))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing field(s) %s", ErrInvalidManifest, strings.Join(missing, ", "))
	}
	return nil
}
