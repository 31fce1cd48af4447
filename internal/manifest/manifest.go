// Package manifest bootstraps business tables from a declarative schema
// file. It is the only path that attaches primary keys; mirrored tables
// never get one.
package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Column struct {
	Name   string
	Type   string `yaml:"type"`
	Length int    `yaml:"length" validate:"gte=0"`
}

type Entry struct {
	Key         string
	TableName   string   `yaml:"table_name" validate:"required"`
	DBURL       string   `yaml:"db_url" validate:"required"`
	Columns     []Column `yaml:"-" validate:"required,min=1,dive"`
	PrivateKeys []string `yaml:"private_keys"`
}

// Manifest keeps entries and their columns in file order.
type Manifest struct {
	Entries []*Entry
}

func (m *Manifest) Entry(key string) (*Entry, error) {
	for _, e := range m.Entries {
		if e.Key == key {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, key)
}

// TableFor returns the declared table name of an entry, or "" when absent.
func (m *Manifest) TableFor(key string) string {
	if e, err := m.Entry(key); err == nil {
		return e.TableName
	}
	return ""
}

func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m := &Manifest{}
	if len(doc.Content) == 0 {
		return m, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse manifest: top level must be a mapping")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		e, err := decodeEntry(root.Content[i].Value, root.Content[i+1])
		if err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, e)
	}
	return m, nil
}

func decodeEntry(key string, node *yaml.Node) (*Entry, error) {
	var body struct {
		TableName   string    `yaml:"table_name"`
		DBURL       string    `yaml:"db_url"`
		Schema      yaml.Node `yaml:"schema"`
		PrivateKeys []string  `yaml:"private_keys"`
	}
	if err := node.Decode(&body); err != nil {
		return nil, fmt.Errorf("manifest entry %s: %w", key, err)
	}
	e := &Entry{
		Key:         key,
		TableName:   strings.Trim(strings.TrimSpace(body.TableName), `"`),
		DBURL:       strings.TrimSpace(body.DBURL),
		PrivateKeys: body.PrivateKeys,
	}
	if body.Schema.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(body.Schema.Content); i += 2 {
			c := Column{Name: body.Schema.Content[i].Value}
			if err := body.Schema.Content[i+1].Decode(&c); err != nil {
				return nil, fmt.Errorf("manifest entry %s column %s: %w", key, c.Name, err)
			}
			e.Columns = append(e.Columns, c)
		}
	}
	return e, nil
}

// Validate reports structural problems of one entry.
func (e *Entry) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("manifest entry %s: %w", e.Key, err)
	}
	cols := make(map[string]struct{}, len(e.Columns))
	for _, c := range e.Columns {
		cols[c.Name] = struct{}{}
	}
	for _, pk := range e.PrivateKeys {
		if _, ok := cols[pk]; !ok {
			return fmt.Errorf("manifest entry %s: primary key column %s not in schema", e.Key, pk)
		}
	}
	return nil
}
