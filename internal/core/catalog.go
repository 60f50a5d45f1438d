package core

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v2"
)

// Encoding is how a field's value is turned into feature columns.
type Encoding string

const (
	EncodingBinary  Encoding = "binary"
	EncodingOneHot  Encoding = "onehot"
	EncodingNumeric Encoding = "numeric"
)

// binaryCodes is the closed mapping shared by every binary-coded field.
var binaryCodes = map[string]float64{
	"No":     0,
	"Yes":    1,
	"Female": 0,
	"Male":   1,
}

type Field struct {
	Name     string   `yaml:"name" json:"name"`
	Label    string   `yaml:"label" json:"label"`
	Encoding Encoding `yaml:"encoding" json:"encoding"`
	Column   int      `yaml:"column" json:"column"`
	Options  []string `yaml:"options,omitempty" json:"options,omitempty"`
}

func (f Field) IsNumeric() bool {
	return f.Encoding == EncodingNumeric
}

func (f Field) HasOption(value string) bool {
	return slices.Contains(f.Options, value)
}

// Catalog is the ordered set of input fields the form collects.
type Catalog struct {
	fields []Field
	byName map[string]int
}

//go:embed fields.yaml
var fieldsYAML []byte

// LoadCatalog parses the catalog embedded in the binary.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(fieldsYAML)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	raw := struct {
		Fields []Field `yaml:"fields"`
	}{}

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing field catalog: %w", err)
	}

	if len(raw.Fields) == 0 {
		return nil, fmt.Errorf("field catalog is empty")
	}

	catalog := &Catalog{
		fields: raw.Fields,
		byName: make(map[string]int, len(raw.Fields)),
	}

	for i, field := range raw.Fields {
		if field.Name == "" {
			return nil, fmt.Errorf("field %d has no name", i)
		}
		if _, exists := catalog.byName[field.Name]; exists {
			return nil, fmt.Errorf("duplicate field '%s' in catalog", field.Name)
		}

		switch field.Encoding {
		case EncodingNumeric:
			if len(field.Options) > 0 {
				return nil, fmt.Errorf("numeric field '%s' cannot declare options", field.Name)
			}
		case EncodingBinary:
			for _, opt := range field.Options {
				if _, ok := binaryCodes[opt]; !ok {
					return nil, fmt.Errorf("binary field '%s' has option '%s' with no binary code", field.Name, opt)
				}
			}
			fallthrough
		case EncodingOneHot:
			if len(field.Options) == 0 {
				return nil, fmt.Errorf("categorical field '%s' declares no options", field.Name)
			}
		default:
			return nil, fmt.Errorf("field '%s' has unknown encoding '%s'", field.Name, field.Encoding)
		}

		catalog.byName[field.Name] = i
	}

	return catalog, nil
}

func (c *Catalog) Fields() []Field {
	return slices.Clone(c.fields)
}

func (c *Catalog) Field(name string) (Field, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

func (c *Catalog) Len() int {
	return len(c.fields)
}

// Column returns the fields laid out in the given form column, in catalog order.
func (c *Catalog) Column(n int) []Field {
	var out []Field
	for _, field := range c.fields {
		if field.Column == n {
			out = append(out, field)
		}
	}
	return out
}

// OneHotColumn is the feature column name emitted for a category of a one-hot field.
func OneHotColumn(field, category string) string {
	return field + "_" + category
}
