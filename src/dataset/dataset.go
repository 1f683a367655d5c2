package dataset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/stake-plus/mmr-scorecard/src/mmr"
)

//go:embed profiles.json
var bundled []byte

// ErrNotFound is returned when a profile slug is not in the catalog.
var ErrNotFound = errors.New("dataset: profile not found")

// Dataset is a collection of assessed profiles.
type Dataset struct {
	Version  string        `json:"version,omitempty"`
	Profiles []mmr.Profile `json:"profiles"`
}

// Parse accepts either a bare JSON array of profiles or an object with a
// "profiles" array.
func Parse(data []byte) (*Dataset, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("dataset: empty document")
	}
	var ds Dataset
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &ds.Profiles); err != nil {
			return nil, fmt.Errorf("dataset: decode profiles: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &ds); err != nil {
		return nil, fmt.Errorf("dataset: decode dataset: %w", err)
	}
	for i, p := range ds.Profiles {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("dataset: profile %d has no name", i)
		}
	}
	return &ds, nil
}

// Load reads a dataset file from disk.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns a fresh copy of the bundled dataset.
func Default() *Dataset {
	ds, err := Parse(bundled)
	if err != nil {
		panic(err)
	}
	return ds
}
