package cases

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"skinvault-api/internal/model"
)

// CatalogError is a catalog lookup failure class.
type CatalogError string

func (e CatalogError) Error() string { return string(e) }

const ErrCaseNotFound CatalogError = "case not found"

// Catalog holds the known openable containers, loaded once at startup.
type Catalog struct {
	cases map[string]model.Case
	order []string
}

type catalogFile struct {
	Cases []model.Case `yaml:"cases"`
}

// LoadCatalog reads the case definitions from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from raw YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse case catalog: %w", err)
	}

	c := &Catalog{cases: make(map[string]model.Case, len(file.Cases))}
	for _, cs := range file.Cases {
		if cs.ID == "" {
			return nil, fmt.Errorf("case %q has no id", cs.Name)
		}
		if err := validateOdds(cs); err != nil {
			return nil, err
		}
		if _, dup := c.cases[cs.ID]; dup {
			return nil, fmt.Errorf("duplicate case id %q", cs.ID)
		}
		c.cases[cs.ID] = cs
		c.order = append(c.order, cs.ID)
	}
	sort.Strings(c.order)
	return c, nil
}

// validateOdds checks that drop probabilities sum to one, within a
// small tolerance for hand-edited files.
func validateOdds(cs model.Case) error {
	var sum float64
	for _, item := range cs.Items {
		if item.Probability < 0 {
			return fmt.Errorf("case %q: negative probability for %q", cs.ID, item.Name)
		}
		sum += item.Probability
	}
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("case %q: drop probabilities sum to %.4f, want 1", cs.ID, sum)
	}
	return nil
}

// List returns all cases ordered by id.
func (c *Catalog) List() []model.Case {
	out := make([]model.Case, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.cases[id])
	}
	return out
}

// Get returns one case by id.
func (c *Catalog) Get(id string) (model.Case, error) {
	cs, ok := c.cases[id]
	if !ok {
		return model.Case{}, ErrCaseNotFound
	}
	return cs, nil
}

// Len reports the number of loaded cases.
func (c *Catalog) Len() int { return len(c.cases) }
