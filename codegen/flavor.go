package codegen

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFlavor is returned by ParseFlavor for an unrecognized name.
var ErrUnknownFlavor = errors.New("unknown output flavor")

// Flavor selects the output dialect.
type Flavor string

const (
	// Loose emits untyped JSX.
	Loose Flavor = "loose"
	// Typed emits TSX with a props interface and annotated signature.
	Typed Flavor = "typed"
)

// Flavors lists every flavor in a fixed order.
var Flavors = []Flavor{Loose, Typed}

// ParseFlavor accepts a flavor name or a file extension alias.
func ParseFlavor(s string) (Flavor, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "loose", "jsx", "js":
		return Loose, nil
	case "typed", "tsx", "ts":
		return Typed, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFlavor, s)
}

// Ext returns the conventional file extension, including the dot.
func (f Flavor) Ext() string {
	if f == Typed {
		return ".tsx"
	}
	return ".jsx"
}
