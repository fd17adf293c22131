package watchlist

import (
	"fmt"
	"os"
	"regexp"
	"slices"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
)

// SeedConfig is the YAML seed file. Channels can be listed flat or grouped
// under arbitrary labels; groups only exist for the operator's benefit.
//
//	streamers:
//	  - alice
//	groups:
//	  music: [bob, carol]
type SeedConfig struct {
	Streamers []string            `yaml:"streamers"`
	Groups    map[string][]string `yaml:"groups"`
}

// SeedLoader reads the local YAML seed used when neither the remote source
// nor the persisted copy is available.
type SeedLoader struct {
	filePath string
}

func NewSeedLoader(filePath string) *SeedLoader {
	return &SeedLoader{filePath: filePath}
}

func (l *SeedLoader) Load() (SeedConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return SeedConfig{}, fmt.Errorf("failed to read seed file: %w", err)
	}

	data = stripTemplateVariables(data)

	var cfg SeedConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SeedConfig{}, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	return cfg, nil
}

// IDs flattens the config into a normalized, de-duplicated list: flat
// entries first, then groups in key order.
func (c SeedConfig) IDs() ([]string, error) {
	ids := append([]string{}, c.Streamers...)
	keys := lo.Keys(c.Groups)
	slices.Sort(keys)
	for _, k := range keys {
		ids = append(ids, c.Groups[k]...)
	}

	ids = Normalize(ids)
	if len(ids) == 0 {
		return nil, fmt.Errorf("no channels found in seed file")
	}
	return ids, nil
}

// Normalize lowercases, trims and de-duplicates ids, dropping empties while
// keeping first-seen order.
func Normalize(ids []string) []string {
	return lo.Uniq(lo.FilterMap(ids, func(id string, _ int) (string, bool) {
		id = domain.NormalizeID(id)
		return id, id != ""
	}))
}

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// stripTemplateVariables blanks deploy-time placeholders such as
// {{LIVEWATCH_VAR_X}} so the file still parses.
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
