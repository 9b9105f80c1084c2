package tournament

import (
	"fmt"
	"os"

	"acecast/internal/domain"

	yaml "gopkg.in/yaml.v2"
)

// Draw describes a tournament field loaded from a YAML file. Trials may be
// zero to request the quick estimate.
type Draw struct {
	Name    string   `yaml:"name"`
	Surface string   `yaml:"surface"`
	Trials  int      `yaml:"trials"`
	Players []string `yaml:"players"`
}

// LoadDraw reads and normalizes a draw file. Player names and the surface
// pass through the same canonicalization as ingested match data.
func LoadDraw(path string) (*Draw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draw file: %w", err)
	}

	var draw Draw
	if err := yaml.Unmarshal(data, &draw); err != nil {
		return nil, fmt.Errorf("failed to parse draw file %s: %w", path, err)
	}

	draw.Surface = domain.NormalizeSurface(draw.Surface)
	for i, p := range draw.Players {
		draw.Players[i] = domain.NormalizeName(p)
	}

	if len(draw.Players) == 0 {
		return nil, fmt.Errorf("draw file %s: %w", path, ErrEmptyBracket)
	}
	return &draw, nil
}
