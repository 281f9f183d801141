// Package help provides the catalog of special variables shown by \? variables
// and the variables subcommand.
package help

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"pgshell/internal/data/embedded"
)

// Variable describes one special variable.
type Variable struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Default     string   `yaml:"default"`
	Values      []string `yaml:"values"`
	Description string   `yaml:"description"`
}

type catalogFile struct {
	Variables []Variable `yaml:"variables"`
}

// Catalog is the parsed variable catalog, sorted by name.
type Catalog struct {
	variables []Variable
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(embedded.VariablesData)
}

// Parse parses a catalog from YAML data.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse variable catalog: %w", err)
	}
	for i, v := range file.Variables {
		if v.Name == "" {
			return nil, fmt.Errorf("variable catalog entry %d has no name", i)
		}
	}
	slices.SortFunc(file.Variables, func(a, b Variable) int {
		return strings.Compare(a.Name, b.Name)
	})
	return &Catalog{variables: file.Variables}, nil
}

// Variables returns a copy of every catalog entry.
func (c *Catalog) Variables() []Variable {
	return slices.Clone(c.variables)
}

// Lookup finds a variable by name.
func (c *Catalog) Lookup(name string) (Variable, bool) {
	i, found := slices.BinarySearchFunc(c.variables, name, func(v Variable, name string) int {
		return strings.Compare(v.Name, name)
	})
	if !found {
		return Variable{}, false
	}
	return c.variables[i], true
}

// Write prints the catalog in the layout of \? variables.
func (c *Catalog) Write(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "List of specially treated variables"); err != nil {
		return err
	}
	for _, v := range c.variables {
		if _, err := fmt.Fprintf(w, "\n  %s\n        %s\n", v.Name, v.Description); err != nil {
			return err
		}
		if len(v.Values) > 0 {
			if _, err := fmt.Fprintf(w, "        values: %s\n", strings.Join(v.Values, ", ")); err != nil {
				return err
			}
		}
		if v.Default != "" {
			if _, err := fmt.Fprintf(w, "        default: %s\n", v.Default); err != nil {
				return err
			}
		}
	}
	return nil
}
