// Package catalog provides the variant table consulted when new elements
// are materialized and when drop targets are classified.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"uiforge/element"
)

// Variant describes one element kind.
type Variant struct {
	Name        string                          `yaml:"name"`
	Container   bool                            `yaml:"container"`
	DisplayName string                          `yaml:"displayName,omitempty"`
	Attributes  map[string]any                  `yaml:"attributes,omitempty"`
	Styles      map[element.Bucket][]string     `yaml:"styles,omitempty"`
	Breakpoints map[element.Breakpoint][]string `yaml:"breakpoints,omitempty"`
}

// File is the on-disk catalog format.
type File struct {
	Variants []Variant `yaml:"variants"`
}

// Catalog maps variant names to their defaults. It is safe for concurrent
// use; Replace swaps the whole table atomically.
type Catalog struct {
	mu       sync.RWMutex
	variants map[string]Variant
}

// New creates a catalog holding the given variants.
func New(variants []Variant) *Catalog {
	c := &Catalog{variants: make(map[string]Variant, len(variants))}
	for _, v := range variants {
		c.variants[v.Name] = v
	}
	return c
}

// Default returns a catalog holding the builtin variants.
func Default() *Catalog {
	return New(Builtin())
}

// LoadFile returns the builtin catalog overlaid with the variants listed in
// a YAML file. Entries with a builtin name replace the builtin entry.
func LoadFile(path string) (*Catalog, error) {
	variants, err := readFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	c.merge(variants)
	return c, nil
}

func readFile(path string) ([]Variant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}

	for i, v := range file.Variants {
		if v.Name == "" {
			return nil, fmt.Errorf("catalog entry %d has no name", i)
		}
		for b := range v.Styles {
			if !element.ValidBucket(b) {
				return nil, fmt.Errorf("variant %s: unknown style bucket %q", v.Name, b)
			}
		}
		for bp := range v.Breakpoints {
			if !element.ValidBreakpoint(bp) {
				return nil, fmt.Errorf("variant %s: unknown breakpoint %q", v.Name, bp)
			}
		}
	}
	return file.Variants, nil
}

func (c *Catalog) merge(variants []Variant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range variants {
		c.variants[v.Name] = v
	}
}

// Replace swaps the table for the contents of other.
func (c *Catalog) Replace(other *Catalog) {
	other.mu.RLock()
	next := make(map[string]Variant, len(other.variants))
	for k, v := range other.variants {
		next[k] = v
	}
	other.mu.RUnlock()

	c.mu.Lock()
	c.variants = next
	c.mu.Unlock()
}

// Lookup returns the variant entry for name.
func (c *Catalog) Lookup(name string) (Variant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.variants[name]
	return v, ok
}

// IsContainer reports whether the variant accepts children. Unknown
// variants do not.
func (c *Catalog) IsContainer(name string) bool {
	v, ok := c.Lookup(name)
	return ok && v.Container
}

// Names returns all variant names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.variants))
	for name := range c.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewNode materializes a node of the given variant with a fresh id and a
// private copy of the variant defaults. An unknown variant yields a bare
// node of that variant.
func (c *Catalog) NewNode(variant string) *element.Node {
	n := &element.Node{
		ID:      element.NewID(),
		Variant: variant,
	}
	v, ok := c.Lookup(variant)
	if !ok {
		return n
	}
	n.DisplayName = v.DisplayName
	n.Attributes = element.CloneAttributes(v.Attributes)
	n.Styles = element.Styles{
		Groups:      cloneGroups(v.Styles),
		Breakpoints: cloneBreakpoints(v.Breakpoints),
	}
	return n
}

func cloneGroups(in map[element.Bucket][]string) map[element.Bucket][]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[element.Bucket][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func cloneBreakpoints(in map[element.Breakpoint][]string) map[element.Breakpoint][]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[element.Breakpoint][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
