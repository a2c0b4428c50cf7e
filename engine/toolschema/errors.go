package toolschema

import (
	"errors"
	"fmt"

	"github.com/compozy/scenario-mcp/engine/core"
)

var errInvalidDescriptor = fmt.Errorf("%w: invalid interface descriptor", core.ErrInternal)

// UnsupportedTypeError is raised for a descriptor node whose type tag has no
// schema mapping. It is an internal error.
type UnsupportedTypeError struct {
	Path string
	Name string
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported field type %q for %q at %s", e.Type, e.Name, e.Path)
}

func (e *UnsupportedTypeError) Unwrap() error {
	return core.ErrInternal
}

// IsUnsupportedType reports whether err carries an UnsupportedTypeError.
func IsUnsupportedType(err error) bool {
	var target *UnsupportedTypeError
	return errors.As(err, &target)
}

// IsInvalidDescriptor reports whether err was caused by a malformed descriptor tree.
func IsInvalidDescriptor(err error) bool {
	return errors.Is(err, errInvalidDescriptor)
}
