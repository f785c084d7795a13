// Package catalog loads the school's accepted payment methods and grade
// levels from a YAML file, with built-in defaults when no file is supplied.
// The catalog feeds the UI dropdowns and validates settlement input.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog holds the configurable enumerations of the tracker.
type Catalog struct {
	PaymentMethods []string `yaml:"payment_methods"`
	Grades         []string `yaml:"grades"`
}

// Default returns the catalog used when no YAML file is configured.
func Default() *Catalog {
	return &Catalog{
		PaymentMethods: []string{"cash", "bank transfer", "cheque", "card"},
		Grades: []string{
			"KG1", "KG2",
			"Grade 1", "Grade 2", "Grade 3", "Grade 4", "Grade 5", "Grade 6",
			"Grade 7", "Grade 8", "Grade 9",
			"Grade 10", "Grade 11", "Grade 12",
		},
	}
}

// Load reads a catalog from the given YAML file. Missing sections fall back
// to the defaults so a file may override only one of the two lists.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	defaults := Default()
	if len(c.PaymentMethods) == 0 {
		c.PaymentMethods = defaults.PaymentMethods
	}
	if len(c.Grades) == 0 {
		c.Grades = defaults.Grades
	}
	return &c, nil
}

// LoadOrDefault loads the catalog from path, or returns the defaults when
// path is empty.
func LoadOrDefault(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return Load(path)
}

// ValidMethod reports whether method is one of the accepted payment methods.
// Comparison is case-insensitive.
func (c *Catalog) ValidMethod(method string) bool {
	method = strings.TrimSpace(method)
	for _, m := range c.PaymentMethods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}
