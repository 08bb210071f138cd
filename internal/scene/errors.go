package scene

import (
	"errors"
	"fmt"
)

// MissingResourceError reports a prim path that does not resolve to a node,
// or a scene artifact that does not exist. Whether it is fatal depends on the
// caller: a missing stage is, a missing optional prim is skipped with a
// warning.
type MissingResourceError struct {
	Path string
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("no resource at %s", e.Path)
}

// IsMissing reports whether err is a MissingResourceError anywhere in its
// chain.
func IsMissing(err error) bool {
	var m *MissingResourceError
	return errors.As(err, &m)
}
