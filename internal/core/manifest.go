package core

import (
	"encoding/json"
	"fmt"
	"sort"
)

const ManifestFile = "manifest.json"

type ManifestEntry struct {
	Source string `json:"source"`
	HTML   string `json:"html"`
	Hash   string `json:"hash"`
}

type Manifest struct {
	BuildID string                   `json:"buildId,omitempty"`
	Entries map[string]ManifestEntry `json:"entries"`
}

func NewManifest(buildID string) *Manifest {
	return &Manifest{
		BuildID: buildID,
		Entries: make(map[string]ManifestEntry),
	}
}

func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Entries == nil {
		m.Entries = make(map[string]ManifestEntry)
	}
	return &m, nil
}

func (m *Manifest) Marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Entries))
	for name := range m.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func HashContent(content []byte) string {
	result := 0
	for _, b := range content {
		result = (result*31 + int(b)) % 1000000007
	}
	return fmt.Sprintf("%08x", result)
}
