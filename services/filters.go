package services

import (
	"strconv"
	"strings"

	"recipe-restful/repositories"
)

// ParseIDList turns "1,2,3" into ids. Empty tokens are skipped; anything that
// is not a non-negative integer is a validation error.
func ParseIDList(param, raw string) ([]uint, error) {
	var ids []uint
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		id, err := strconv.ParseUint(token, 10, 32)
		if err != nil {
			return nil, validationErrorf("%s must be a comma separated list of ids, got %q", param, token)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// ParseRecipeFilter builds a recipe filter from the raw `tags` and
// `ingredients` query parameters.
func ParseRecipeFilter(tags, ingredients string) (repositories.RecipeFilter, error) {
	var filter repositories.RecipeFilter
	var err error
	if filter.TagIDs, err = ParseIDList("tags", tags); err != nil {
		return repositories.RecipeFilter{}, err
	}
	if filter.IngredientIDs, err = ParseIDList("ingredients", ingredients); err != nil {
		return repositories.RecipeFilter{}, err
	}
	return filter, nil
}

// ParseAssignedOnly reads the integer `assigned_only` flag; absent means false
// and any non-zero value means true.
func ParseAssignedOnly(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return false, validationErrorf("assigned_only must be 0 or 1, got %q", raw)
	}
	return n != 0, nil
}
