package curriculum

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// ModuleReader is the read side of the module store. Lookups return
// (nil, nil) when nothing matches.
type ModuleReader interface {
	Get(ctx context.Context, id string) (*Module, error)
	FindByCode(ctx context.Context, code string) (*Module, error)
	All(ctx context.Context) ([]Module, error)
}

// Resolve finds a module by code first and by storage id second.
// Returns *ModuleNotFoundError if neither matches.
func Resolve(ctx context.Context, r ModuleReader, ref string) (*Module, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &ModuleNotFoundError{Ref: ref}
	}

	m, err := r.FindByCode(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("find module by code: %w", err)
	}
	if m != nil {
		return m, nil
	}

	m, err = r.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("get module: %w", err)
	}
	if m == nil {
		return nil, &ModuleNotFoundError{Ref: ref}
	}
	return m, nil
}

// Index maps storage ids to copies of modules; later changes to the
// slice do not show through the map. A repeated id keeps the last entry.
func Index(modules []Module) map[string]*Module {
	owned := slices.Clone(modules)
	idx := make(map[string]*Module, len(owned))
	for i := range owned {
		idx[owned[i].ID] = &owned[i]
	}
	return idx
}
