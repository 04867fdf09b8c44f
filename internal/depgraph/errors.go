package depgraph

import (
	"fmt"
	"strings"

	"github.com/ciclofficina/tracker/internal/curriculum"
)

// SelfDependencyError is returned when a module is given as its own
// prerequisite. Nothing is written.
type SelfDependencyError struct {
	Ref string
}

func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("module %s cannot depend on itself", e.Ref)
}

// CycleError is returned when a new edge would close a cycle. Chain lists
// module codes starting and ending with the dependent, following
// prerequisite edges. Nothing is written.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency would create a cycle: %s", strings.Join(e.Chain, " -> "))
}

// InvalidDependencyTypeError is returned for a type other than mandatory
// or recommended.
type InvalidDependencyTypeError struct {
	Type curriculum.DependencyType
}

func (e *InvalidDependencyTypeError) Error() string {
	return fmt.Sprintf("invalid dependency type %q (want %q or %q)", e.Type, curriculum.Mandatory, curriculum.Recommended)
}
