package suite

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/vlad89buzan/dataquality/internal/dataset"
	"github.com/vlad89buzan/dataquality/internal/dq"
)

// Suite is a named set of datasets and the checks to run against them.
type Suite struct {
	// Name identifies the suite in reports.
	Name string `yaml:"name"`

	// Description explains what the suite guards.
	Description string `yaml:"description,omitempty"`

	// Tables maps aliases to table ids. Aliases are available to queries
	// as template fields ({{.ORDERS}}) and to checks through Check.Table.
	// Entries here override the environment's aliases.
	Tables map[string]string `yaml:"tables,omitempty"`

	// Datasets are fetched once per run and shared by all checks.
	Datasets map[string]DatasetSource `yaml:"datasets,omitempty"`

	// Checks run in declaration order.
	Checks []Check `yaml:"checks"`

	// Path is the file the suite was loaded from. Relative dataset files and
	// schema files resolve against its directory.
	Path string `yaml:"-"`
}

// DatasetSource describes where a dataset comes from: a catalog query or a
// local CSV/Parquet file. Exactly one of Query and File is set.
type DatasetSource struct {
	Query      string            `yaml:"query,omitempty"`
	File       string            `yaml:"file,omitempty"`
	Types      map[string]string `yaml:"types,omitempty"`
	Delimiter  string            `yaml:"delimiter,omitempty"`
	NullValues []string          `yaml:"null_values,omitempty"`
}

// Check is one assertion of a suite. Which fields apply depends on Type.
type Check struct {
	ID   string `yaml:"id,omitempty"`
	Name string `yaml:"name,omitempty"`
	Type string `yaml:"type"`

	// Dataset is used by duplicates, empty, not_empty, not_null and
	// column_validity.
	Dataset string `yaml:"dataset,omitempty"`

	// Source and Target are used by row_count and reconcile.
	Source string `yaml:"source,omitempty"`
	Target string `yaml:"target,omitempty"`

	Columns   []string   `yaml:"columns,omitempty"`
	PerColumn bool       `yaml:"per_column,omitempty"`
	Rules     []RuleSpec `yaml:"rules,omitempty"`

	// Table is used by table_exists, table_not_empty and schema. It may be
	// an alias.
	Table string `yaml:"table,omitempty"`
	Limit int    `yaml:"limit,omitempty"`

	Schema     map[string]dq.ExpectedColumn `yaml:"schema,omitempty"`
	SchemaFile string                       `yaml:"schema_file,omitempty"`
}

// Label returns the id and name of the check for display.
func (c Check) Label() string {
	if c.Name == "" {
		return c.ID
	}
	return c.ID + " " + c.Name
}

// datasets lists the dataset names the check reads.
func (c Check) datasets() []string {
	switch c.Type {
	case dq.KindRowCount, dq.KindReconcile:
		return []string{c.Source, c.Target}
	case dq.KindDuplicates, dq.KindEmpty, dq.KindNotEmpty, dq.KindNotNull, dq.KindColumnValidity:
		return []string{c.Dataset}
	}
	return nil
}

// Load reads and validates the suite at path.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// Parse decodes and validates a suite document.
func Parse(data []byte) (*Suite, error) {
	var s Suite
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse suite YAML: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse suite YAML: %w", err)
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	if err := validateSuite(&s); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &s, nil
}

// FindFiles returns the suite files at path: the file itself, or every
// .yaml and .yml file below a directory, sorted.
func FindFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(p) {
		case ".yaml", ".yml":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", path, err)
	}
	sort.Strings(files)
	return files, nil
}

// Filter returns a copy of the suite keeping only the checks whose id or
// name matches the glob pattern. An empty pattern keeps every check.
func (s *Suite) Filter(pattern string) (*Suite, error) {
	if pattern == "" {
		return s, nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
	}

	out := *s
	out.Checks = nil
	for _, c := range s.Checks {
		idMatch, _ := filepath.Match(pattern, c.ID)
		nameMatch, _ := filepath.Match(pattern, c.Name)
		if idMatch || nameMatch {
			out.Checks = append(out.Checks, c)
		}
	}
	return &out, nil
}

// resolve returns path relative to the suite file's directory.
func (s *Suite) resolve(path string) string {
	if filepath.IsAbs(path) || s.Path == "" {
		return path
	}
	return filepath.Join(filepath.Dir(s.Path), path)
}

func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Checks) == 0 {
		return fmt.Errorf("at least one check is required")
	}

	for name, src := range s.Datasets {
		if err := validateDataset(src); err != nil {
			return fmt.Errorf("dataset %q: %w", name, err)
		}
	}

	seen := make(map[string]bool, len(s.Checks))
	for i := range s.Checks {
		c := &s.Checks[i]
		if c.ID == "" {
			c.ID = fmt.Sprintf("check-%d", i+1)
		}
		if seen[c.ID] {
			return fmt.Errorf("check %d: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = true

		if err := validateCheck(s, *c); err != nil {
			return fmt.Errorf("check %s: %w", c.ID, err)
		}
	}
	return nil
}

func validateDataset(src DatasetSource) error {
	if (src.Query == "") == (src.File == "") {
		return fmt.Errorf("exactly one of query and file is required")
	}
	for col, name := range src.Types {
		if _, err := dataset.ParseType(name); err != nil {
			return fmt.Errorf("column %q: %w", col, err)
		}
	}
	if src.Delimiter != "" && utf8.RuneCountInString(src.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", src.Delimiter)
	}
	if src.Query != "" && (src.Delimiter != "" || len(src.NullValues) > 0) {
		return fmt.Errorf("delimiter and null_values only apply to file datasets")
	}
	return nil
}

func validateCheck(s *Suite, c Check) error {
	require := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("%s is required for %s checks", field, c.Type)
		}
		return nil
	}

	switch c.Type {
	case dq.KindDuplicates, dq.KindEmpty, dq.KindNotEmpty, dq.KindNotNull:
		if err := require("dataset", c.Dataset); err != nil {
			return err
		}
	case dq.KindColumnValidity:
		if err := require("dataset", c.Dataset); err != nil {
			return err
		}
		if len(c.Rules) == 0 {
			return fmt.Errorf("rules are required for %s checks", c.Type)
		}
		for i, r := range c.Rules {
			if err := r.validate(); err != nil {
				return fmt.Errorf("rule %d: %w", i, err)
			}
		}
	case dq.KindRowCount, dq.KindReconcile:
		if err := require("source", c.Source); err != nil {
			return err
		}
		if err := require("target", c.Target); err != nil {
			return err
		}
	case dq.KindTableExists, dq.KindTableNotEmpty:
		if err := require("table", c.Table); err != nil {
			return err
		}
		if c.Limit < 0 {
			return fmt.Errorf("limit must be positive")
		}
	case dq.KindSchema:
		if err := require("table", c.Table); err != nil {
			return err
		}
		if (len(c.Schema) == 0) == (c.SchemaFile == "") {
			return fmt.Errorf("exactly one of schema and schema_file is required")
		}
	default:
		return fmt.Errorf("unknown check type %q", c.Type)
	}

	if c.PerColumn && c.Type != dq.KindDuplicates {
		return fmt.Errorf("per_column only applies to %s checks", dq.KindDuplicates)
	}

	for _, name := range c.datasets() {
		if _, ok := s.Datasets[name]; !ok {
			return fmt.Errorf("unknown dataset %q (defined: %s)", name, strings.Join(datasetNames(s), ", "))
		}
	}
	return nil
}

func datasetNames(s *Suite) []string {
	names := make([]string, 0, len(s.Datasets))
	for name := range s.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
