// Package catalog holds the fixed option sets of the prediction page: the
// universities, streams, years, subjects and modes a student can choose, the
// subject lookup table used for text matching, and the startup defaults.
package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

//go:embed schema.json
var schemaJSON []byte

// Load reads a catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		cat, err := Parse(defaultYAML)
		if err != nil {
			return nil, fmt.Errorf("parsing embedded catalog: %w", err)
		}
		slog.Info("catalog loaded", "source", "embedded", "subjects", len(cat.Subjects), "modes", len(cat.Modes))
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	slog.Info("catalog loaded", "source", path, "subjects", len(cat.Subjects), "modes", len(cat.Modes))
	return cat, nil
}

// Default returns the embedded catalog. It panics if the embedded file is
// invalid, which the package tests rule out.
func Default() *Catalog {
	cat, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return cat
}

// Parse decodes YAML, checks it against the catalog schema and verifies that
// IDs are unique and defaults refer to existing options.
func Parse(data []byte) (*Catalog, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks cross references the schema cannot express.
func (c *Catalog) Validate() error {
	lists := []struct {
		name string
		ids  []string
	}{
		{"university", optionIDs(c.Universities)},
		{"stream", optionIDs(c.Streams)},
		{"year", optionIDs(c.Years)},
		{"subject", subjectIDs(c.Subjects)},
		{"mode", modeIDs(c.Modes)},
	}
	for _, l := range lists {
		seen := make(map[string]bool, len(l.ids))
		for _, id := range l.ids {
			if seen[id] {
				return fmt.Errorf("duplicate %s id %q", l.name, id)
			}
			seen[id] = true
		}
	}

	d := c.Defaults
	if _, ok := c.University(d.University); !ok {
		return fmt.Errorf("default university %q is not in the catalog", d.University)
	}
	if _, ok := c.Stream(d.Stream); !ok {
		return fmt.Errorf("default stream %q is not in the catalog", d.Stream)
	}
	if _, ok := c.Year(d.Year); !ok {
		return fmt.Errorf("default year %q is not in the catalog", d.Year)
	}
	if _, ok := c.Subject(d.Subject); !ok {
		return fmt.Errorf("default subject %q is not in the catalog", d.Subject)
	}
	if d.Mode != "" {
		if _, ok := c.Mode(d.Mode); !ok {
			return fmt.Errorf("default mode %q is not in the catalog", d.Mode)
		}
	}
	return nil
}

func validateSchema(doc any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validating catalog schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("catalog does not match schema: %s", strings.Join(msgs, "; "))
}

func optionIDs(opts []Option) []string {
	ids := make([]string, 0, len(opts))
	for _, o := range opts {
		ids = append(ids, o.ID)
	}
	return ids
}

func subjectIDs(subjects []Subject) []string {
	ids := make([]string, 0, len(subjects))
	for _, s := range subjects {
		ids = append(ids, s.ID)
	}
	return ids
}

func modeIDs(modes []Mode) []string {
	ids := make([]string, 0, len(modes))
	for _, m := range modes {
		ids = append(ids, m.ID)
	}
	return ids
}
