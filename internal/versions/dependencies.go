package versions

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// AnyVersion is the spec recorded for a dependency declared with no constraint
const AnyVersion = "any"

// Dependency is one name/constraint pair
type Dependency struct {
	Package string `json:"package"`
	Version string `json:"version"`
}

// Dependencies is a name to version constraint mapping that keeps the
// registry's declaration order. The zero value is an empty mapping.
type Dependencies struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewDependencies builds a mapping from pairs in the given order.
// A repeated name keeps its first position and takes the last spec.
func NewDependencies(deps ...Dependency) Dependencies {
	m := orderedmap.New[string, string]()
	for _, d := range deps {
		m.Set(d.Package, d.Version)
	}
	return Dependencies{m: m}
}

// Len returns the number of dependencies
func (d Dependencies) Len() int {
	if d.m == nil {
		return 0
	}
	return d.m.Len()
}

// Get returns the spec recorded for name
func (d Dependencies) Get(name string) (string, bool) {
	if d.m == nil {
		return "", false
	}
	return d.m.Get(name)
}

// List returns the dependencies in declaration order
func (d Dependencies) List() []Dependency {
	if d.m == nil {
		return nil
	}
	list := make([]Dependency, 0, d.m.Len())
	for pair := d.m.Oldest(); pair != nil; pair = pair.Next() {
		list = append(list, Dependency{Package: pair.Key, Version: pair.Value})
	}
	return list
}

// MarshalJSON writes the mapping as a JSON object in declaration order
func (d Dependencies) MarshalJSON() ([]byte, error) {
	if d.m == nil || d.m.Len() == 0 {
		return []byte("{}"), nil
	}
	return d.m.MarshalJSON()
}

// UnmarshalJSON reads a pubspec dependency object. String specs are kept
// verbatim, null becomes AnyVersion, and structured specs such as
// {"sdk":"flutter"} are stored as their compact JSON text.
func (d *Dependencies) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*d = Dependencies{}
		return nil
	}

	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(trimmed, raw); err != nil {
		return fmt.Errorf("invalid dependency map: %w", err)
	}

	m := orderedmap.New[string, string]()
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		spec, err := normaliseSpec(pair.Value)
		if err != nil {
			return fmt.Errorf("invalid spec for dependency %q: %w", pair.Key, err)
		}
		m.Set(pair.Key, spec)
	}

	*d = Dependencies{m: m}
	return nil
}

func normaliseSpec(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return AnyVersion, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}
