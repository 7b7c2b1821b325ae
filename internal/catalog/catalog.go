// Package catalog holds the dataset choices offered by the download
// menus. The embedded catalog covers the datasets the tool was built
// for; a YAML file can replace it without rebuilding.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

type Catalog struct {
	Datasets     []string `yaml:"datasets"`
	DatasetTypes []string `yaml:"dataset_types"`
}

// Load reads the catalog from path, or the embedded default when path
// is empty.
func Load(path string) (Catalog, error) {
	raw := embedded
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Catalog{}, fmt.Errorf("read catalog: %w", err)
		}
		raw = b
	}

	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Datasets) == 0 {
		return Catalog{}, fmt.Errorf("catalog lists no datasets")
	}
	if len(c.DatasetTypes) == 0 {
		return Catalog{}, fmt.Errorf("catalog lists no dataset types")
	}
	return c, nil
}
