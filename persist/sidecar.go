package persist

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ashlab/cuckoofilter/internal/config"
)

// SaveBuilderConfig writes cfg as YAML to path, independent of the binary
// snapshot Save writes. It lets a filter's dimensions (tagBits, numBuckets,
// algorithm, concurrency) be inspected or version-controlled without
// decoding the packed bit array.
func SaveBuilderConfig(path string, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("persist: marshal builder config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("persist: write builder config %s: %w", path, err)
	}
	return nil
}

// LoadBuilderConfig reads and validates a YAML sidecar written by
// SaveBuilderConfig.
func LoadBuilderConfig(path string) (*config.Config, error) {
	return config.Load(path)
}
