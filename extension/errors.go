package extension

import (
	"errors"
	"fmt"
)

// ErrBadDeclaration is returned when a declaration names neither or both
// backends, repeats a parameter name, or claims a reserved name.
var ErrBadDeclaration = errors.New("invalid extension declaration")

// BadDeclarationError identifies the rejected declaration.
type BadDeclarationError struct {
	Name   string
	Reason string
}

func (e *BadDeclarationError) Error() string {
	return fmt.Sprintf("invalid extension declaration %q: %s", e.Name, e.Reason)
}

// Is implements error matching for errors.Is() checks.
func (e *BadDeclarationError) Is(target error) bool {
	return target == ErrBadDeclaration
}
