package services

import (
	"context"
	"fmt"

	"recipe-restful/repositories"
)

// resolveAttributes maps name-only descriptors from a recipe payload onto the
// owner's rows, creating the missing ones. Repeated names resolve once. The
// owner always comes from the authenticated request, never the payload.
func resolveAttributes[T any](ctx context.Context, repo repositories.AttributeRepository[T], kind string, ownerID uint, descriptors []AttributeInput) ([]T, error) {
	rows := make([]T, 0, len(descriptors))
	seen := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		if d.Name == nil {
			return nil, validationErrorf("every %s needs a name", kind)
		}
		name, err := cleanName(kind, *d.Name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		row, _, err := repo.GetOrCreate(ctx, ownerID, name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s %q: %w", kind, name, err)
		}
		rows = append(rows, *row)
	}
	return rows, nil
}
