package project

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// snapshot is the YAML document shape for export and import.
type snapshot struct {
	Active string `yaml:"active,omitempty"`
	Files  []File `yaml:"files"`
}

// WriteSnapshot encodes the project as YAML.
func WriteSnapshot(w io.Writer, p *Project) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snapshot{Active: p.active, Files: p.Files()}); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return enc.Close()
}

// ReadSnapshot decodes a YAML snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Project, error) {
	var snap snapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	seen := make(map[string]bool, len(snap.Files))
	for i, f := range snap.Files {
		if f.Name == "" {
			return nil, fmt.Errorf("snapshot file %d: empty name", i)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("snapshot file %d: duplicate name %q", i, f.Name)
		}
		seen[f.Name] = true
	}

	return FromFiles(snap.Files, snap.Active), nil
}
