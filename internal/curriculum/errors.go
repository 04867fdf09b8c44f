package curriculum

import (
	"fmt"
	"strings"
)

// ModuleNotFoundError is returned when a module reference (code or id)
// matches nothing in the store.
type ModuleNotFoundError struct {
	Ref string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module not found: %q", e.Ref)
}

// ModuleInUseError is returned when deleting a module that other modules
// still list as a prerequisite.
type ModuleInUseError struct {
	Code       string
	Dependents []string
}

func (e *ModuleInUseError) Error() string {
	return fmt.Sprintf("module %s is a prerequisite of %d module(s): %s",
		e.Code, len(e.Dependents), strings.Join(e.Dependents, ", "))
}

// ValidationError collects field problems for one subject.
type ValidationError struct {
	Subject  string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Subject, strings.Join(e.Problems, "; "))
}
