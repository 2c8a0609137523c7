// Package catalog loads the offline operator and broker catalog from YAML.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jask/planwizard/internal/broker"
	"github.com/jask/planwizard/internal/operator"
)

// Catalog is the content of the catalog file.
type Catalog struct {
	Operators []operator.Operator `yaml:"operators"`
	Brokers   []broker.Broker     `yaml:"brokers"`
}

// Load reads and checks the catalog at path. Missing files surface as fs.ErrNotExist.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if err := c.check(); err != nil {
		return Catalog{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

func (c Catalog) check() error {
	seen := map[string]bool{}
	for i, op := range c.Operators {
		id := strings.TrimSpace(op.ID)
		if id == "" || strings.TrimSpace(op.Name) == "" {
			return fmt.Errorf("operator #%d: id and name are required", i+1)
		}
		if seen[id] {
			return fmt.Errorf("duplicate operator id %q", id)
		}
		seen[id] = true
	}
	for i, b := range c.Brokers {
		if strings.TrimSpace(b.Code) == "" {
			return fmt.Errorf("broker #%d: code is required", i+1)
		}
	}
	return nil
}
