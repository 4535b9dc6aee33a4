package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"recipe-restful/models"
	"recipe-restful/repositories"
	"recipe-restful/storage"

	"github.com/shopspring/decimal"
)

var maxPrice = decimal.RequireFromString("999.99")

// RecipeService manages recipes of the requesting owner, including the
// reconciliation of embedded tags and ingredients.
type RecipeService interface {
	List(ctx context.Context, ownerID uint, filter repositories.RecipeFilter) ([]models.Recipe, error)
	Get(ctx context.Context, ownerID, id uint) (*models.Recipe, error)
	Create(ctx context.Context, ownerID uint, input *RecipeInput) (*models.Recipe, error)
	Update(ctx context.Context, ownerID, id uint, input *RecipeInput, partial bool) (*models.Recipe, error)
	Delete(ctx context.Context, ownerID, id uint) error
	UploadImage(ctx context.Context, ownerID, id uint, filename string, data []byte) (string, error)
}

// ImageStore persists uploaded recipe images and returns their media path.
type ImageStore interface {
	SaveRecipeImage(ext string, data []byte) (string, error)
	RemoveRecipeImage(path string) error
}

// RecipeInput is the body of recipe writes. A nil Tags/Ingredients pointer
// means the key was absent (associations untouched); a non-nil empty slice
// clears them. There is deliberately no owner field.
type RecipeInput struct {
	Title       *string           `json:"title" validate:"omitnil,max=255"`
	TimeMinutes *int              `json:"time_minutes" validate:"omitnil,gte=0"`
	Price       *decimal.Decimal  `json:"price" description:"Up to 999.99, two decimals"`
	Description *string           `json:"description"`
	Link        *string           `json:"link" validate:"omitnil,max=255"`
	Tags        *[]AttributeInput `json:"tags"`
	Ingredients *[]AttributeInput `json:"ingredients"`
}

type recipeService struct {
	store  *repositories.Store
	images ImageStore
}

var _ RecipeService = (*recipeService)(nil)

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(store *repositories.Store, images ImageStore) RecipeService {
	return &recipeService{store: store, images: images}
}

func (s *recipeService) List(ctx context.Context, ownerID uint, filter repositories.RecipeFilter) ([]models.Recipe, error) {
	recipes, err := s.store.Recipes.List(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("database error listing recipes: %w", err)
	}
	return recipes, nil
}

func (s *recipeService) Get(ctx context.Context, ownerID, id uint) (*models.Recipe, error) {
	recipe, err := s.store.Recipes.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, notFoundOr(err, "recipe")
	}
	return recipe, nil
}

func (s *recipeService) Create(ctx context.Context, ownerID uint, input *RecipeInput) (*models.Recipe, error) {
	if err := checkRecipeInput(input, false); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{UserID: ownerID}
	applyRecipeInput(recipe, input)

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := tx.Recipes.Create(ctx, recipe); err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return reconcile(ctx, tx, recipe, input)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ownerID, recipe.ID)
}

// Update applies a full (PUT) or partial (PATCH) update. Lookup, scalar
// changes and association replacement share one transaction.
func (s *recipeService) Update(ctx context.Context, ownerID, id uint, input *RecipeInput, partial bool) (*models.Recipe, error) {
	if err := checkRecipeInput(input, partial); err != nil {
		return nil, err
	}

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		recipe, err := tx.Recipes.FindByID(ctx, ownerID, id)
		if err != nil {
			return notFoundOr(err, "recipe")
		}

		applyRecipeInput(recipe, input)
		if err := tx.Recipes.Update(ctx, recipe); err != nil {
			return fmt.Errorf("failed to save recipe updates: %w", err)
		}
		return reconcile(ctx, tx, recipe, input)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ownerID, id)
}

func (s *recipeService) Delete(ctx context.Context, ownerID, id uint) error {
	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		recipe, err := tx.Recipes.FindByID(ctx, ownerID, id)
		if err != nil {
			return notFoundOr(err, "recipe")
		}
		if err := tx.Recipes.Delete(ctx, recipe); err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
}

// UploadImage stores data as the recipe's new image and returns its media
// path. Ownership is enforced by the owner-scoped update alone; the HTTP
// handler looks the recipe up before parsing the multipart body so that a
// foreign id answers 404 ahead of any 400 about the upload. The stored file
// is removed again when the update fails. The previous image file is left
// in place.
func (s *recipeService) UploadImage(ctx context.Context, ownerID, id uint, filename string, data []byte) (string, error) {
	ext, err := storage.ImageExtension(filename, data)
	if err != nil {
		if errors.Is(err, storage.ErrNotAnImage) {
			return "", validationErrorf("%s", err.Error())
		}
		return "", err
	}

	path, err := s.images.SaveRecipeImage(ext, data)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	if err := s.store.Recipes.UpdateImage(ctx, ownerID, id, path); err != nil {
		if rmErr := s.images.RemoveRecipeImage(path); rmErr != nil {
			err = errors.Join(err, rmErr)
		}
		return "", notFoundOr(err, "recipe")
	}
	return path, nil
}

// checkRecipeInput validates field values; full writes additionally need
// title, time_minutes and price.
func checkRecipeInput(input *RecipeInput, partial bool) error {
	if !partial {
		var missing []string
		if input.Title == nil {
			missing = append(missing, "title")
		}
		if input.TimeMinutes == nil {
			missing = append(missing, "time_minutes")
		}
		if input.Price == nil {
			missing = append(missing, "price")
		}
		if len(missing) > 0 {
			return validationErrorf("%s required", strings.Join(missing, ", "))
		}
	}

	if err := validateInput(input); err != nil {
		return err
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return validationErrorf("title may not be blank")
	}
	if input.Title != nil && utf8.RuneCountInString(*input.Title) > maxNameLength {
		return validationErrorf("title must be at most %d characters", maxNameLength)
	}
	if input.Price != nil {
		return checkPrice(*input.Price)
	}
	return nil
}

// checkPrice enforces a decimal(5,2) price.
func checkPrice(price decimal.Decimal) error {
	switch {
	case price.IsNegative():
		return validationErrorf("price must not be negative")
	case price.GreaterThan(maxPrice):
		return validationErrorf("price must be at most %s", maxPrice.StringFixed(2))
	case !price.Equal(price.Round(2)):
		return validationErrorf("price must have at most 2 decimal places")
	}
	return nil
}

func applyRecipeInput(recipe *models.Recipe, input *RecipeInput) {
	if input.Title != nil {
		recipe.Title = strings.TrimSpace(*input.Title)
	}
	if input.TimeMinutes != nil {
		recipe.TimeMinutes = *input.TimeMinutes
	}
	if input.Price != nil {
		recipe.Price = *input.Price
	}
	if input.Description != nil {
		recipe.Description = *input.Description
	}
	if input.Link != nil {
		recipe.Link = *input.Link
	}
}

// reconcile resolves and replaces the associations whose keys were present.
func reconcile(ctx context.Context, tx *repositories.Store, recipe *models.Recipe, input *RecipeInput) error {
	if input.Tags != nil {
		tags, err := resolveAttributes(ctx, tx.Tags, "tag", recipe.UserID, *input.Tags)
		if err != nil {
			return err
		}
		if err := tx.Recipes.ReplaceTags(ctx, recipe, tags); err != nil {
			return fmt.Errorf("failed to update recipe tags: %w", err)
		}
	}
	if input.Ingredients != nil {
		ingredients, err := resolveAttributes(ctx, tx.Ingredients, "ingredient", recipe.UserID, *input.Ingredients)
		if err != nil {
			return err
		}
		if err := tx.Recipes.ReplaceIngredients(ctx, recipe, ingredients); err != nil {
			return fmt.Errorf("failed to update recipe ingredients: %w", err)
		}
	}
	return nil
}
