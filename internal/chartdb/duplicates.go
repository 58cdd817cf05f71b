package chartdb

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/drumrate/internal/model"
)

type duplicatesFile struct {
	Groups []model.DuplicateGroup `yaml:"groups"`
}

// LoadDuplicateGroups reads duplicate groups from a YAML file. A missing file
// means no groups.
//
//	groups:
//	  - [{id: 12, level: 4}, {id: 812, level: 4}]
func LoadDuplicateGroups(path string) ([]model.DuplicateGroup, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read duplicate groups: %w", err)
	}
	return ParseDuplicateGroups(data)
}

// ParseDuplicateGroups decodes the YAML duplicate table. Groups with fewer than
// two members are dropped.
func ParseDuplicateGroups(data []byte) ([]model.DuplicateGroup, error) {
	var f duplicatesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode duplicate groups: %w", err)
	}
	out := make([]model.DuplicateGroup, 0, len(f.Groups))
	for i, g := range f.Groups {
		for _, key := range g {
			if !key.Tier.Valid() {
				return nil, fmt.Errorf("group %d: invalid level %d for song %d", i+1, key.Tier, key.ID)
			}
		}
		if len(g) < 2 {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}
