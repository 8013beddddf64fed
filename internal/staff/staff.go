package staff

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Directory maps internal staff keys to canonical legal names. It satisfies
// billing.StaffDirectory.
type Directory struct {
	names map[string]string
}

// NewDirectory builds a Directory from a raw map. Keys and names are used
// exactly as given; loaders are responsible for trimming.
func NewDirectory(names map[string]string) *Directory {
	if names == nil {
		names = make(map[string]string)
	}
	return &Directory{names: names}
}

// Lookup returns the legal name registered for the staff key.
func (d *Directory) Lookup(staffKey string) (string, bool) {
	name, ok := d.names[staffKey]
	return name, ok
}

// Size returns the number of registered staff keys.
func (d *Directory) Size() int {
	return len(d.names)
}

// fileSchema mirrors the staff YAML document:
//
//	staff:
//	  S1: Alice Nguyen
//	  S2: Bob Tran
type fileSchema struct {
	Staff map[string]string `yaml:"staff"`
}

// LoadFile loads a staff directory from a YAML file.
func LoadFile(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read staff file: %w", err)
	}
	dir, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff from %s: %w", path, err)
	}
	return dir, nil
}

// Parse builds a Directory from YAML bytes. Keys and names are trimmed; an
// entry with an empty name is rejected rather than letting it become a blank
// payee on an invoice.
func Parse(data []byte) (*Directory, error) {
	var doc fileSchema
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal staff: %w", err)
	}

	names := make(map[string]string, len(doc.Staff))
	for staffKey, legalName := range doc.Staff {
		staffKey = strings.TrimSpace(staffKey)
		legalName = strings.TrimSpace(legalName)
		if staffKey == "" {
			return nil, fmt.Errorf("staff: empty staff key")
		}
		if legalName == "" {
			return nil, fmt.Errorf("staff: empty legal name for key %q", staffKey)
		}
		names[staffKey] = legalName
	}

	return NewDirectory(names), nil
}
