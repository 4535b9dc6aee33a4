package repositories

import (
	"context"

	"recipe-restful/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeFilter narrows a recipe listing. Ids within one slice are OR-ed,
// non-empty slices are AND-ed together.
type RecipeFilter struct {
	TagIDs        []uint
	IngredientIDs []uint
}

// RecipeRepository is the owner-scoped store for recipes. Lookups by id
// never see another owner's recipe.
type RecipeRepository interface {
	List(ctx context.Context, ownerID uint, filter RecipeFilter) ([]models.Recipe, error)
	FindByID(ctx context.Context, ownerID, id uint) (*models.Recipe, error)
	Create(ctx context.Context, recipe *models.Recipe) error
	Update(ctx context.Context, recipe *models.Recipe) error
	ReplaceTags(ctx context.Context, recipe *models.Recipe, tags []models.Tag) error
	ReplaceIngredients(ctx context.Context, recipe *models.Recipe, ingredients []models.Ingredient) error
	UpdateImage(ctx context.Context, ownerID, id uint, image string) error
	Delete(ctx context.Context, recipe *models.Recipe) error
}

type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new RecipeRepository instance
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name DESC") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredients.name DESC") })
}

// List returns the owner's recipes, most recent first. Filters are applied as
// id subqueries so a recipe matching several ids appears once.
func (r *recipeRepository) List(ctx context.Context, ownerID uint, filter RecipeFilter) ([]models.Recipe, error) {
	query := r.preloaded(ctx).Where("user_id = ?", ownerID)
	if len(filter.TagIDs) > 0 {
		query = query.Where("id IN (?)",
			r.db.Table("recipe_tags").Select("recipe_id").Where("tag_id IN ?", filter.TagIDs))
	}
	if len(filter.IngredientIDs) > 0 {
		query = query.Where("id IN (?)",
			r.db.Table("recipe_ingredients").Select("recipe_id").Where("ingredient_id IN ?", filter.IngredientIDs))
	}

	var recipes []models.Recipe
	if err := query.Order("id DESC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *recipeRepository) FindByID(ctx context.Context, ownerID, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	result := r.preloaded(ctx).Where("user_id = ? AND id = ?", ownerID, id).First(&recipe)
	if result.Error != nil {
		return nil, result.Error
	}
	return &recipe, nil
}

// Create inserts the recipe row only; associations go through ReplaceTags and
// ReplaceIngredients.
func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(recipe).Error
}

// Update saves scalar columns. The owner column is never written.
func (r *recipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).
		Model(recipe).
		Where("user_id = ?", recipe.UserID).
		Select("title", "price", "time_minutes", "description", "link").
		Updates(recipe).Error
}

func (r *recipeRepository) ReplaceTags(ctx context.Context, recipe *models.Recipe, tags []models.Tag) error {
	association := r.db.WithContext(ctx).Model(recipe).Association("Tags")
	if len(tags) == 0 {
		return association.Clear()
	}
	return association.Replace(tags)
}

func (r *recipeRepository) ReplaceIngredients(ctx context.Context, recipe *models.Recipe, ingredients []models.Ingredient) error {
	association := r.db.WithContext(ctx).Model(recipe).Association("Ingredients")
	if len(ingredients) == 0 {
		return association.Clear()
	}
	return association.Replace(ingredients)
}

// UpdateImage points an owned recipe at a new image. It returns
// gorm.ErrRecordNotFound when no recipe of ownerID has that id.
func (r *recipeRepository) UpdateImage(ctx context.Context, ownerID, id uint, image string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("user_id = ? AND id = ?", ownerID, id).
		Update("image", image)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the recipe and its tag/ingredient links; the tags and
// ingredients themselves survive.
func (r *recipeRepository) Delete(ctx context.Context, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).
		Select("Tags", "Ingredients").
		Where("user_id = ?", recipe.UserID).
		Delete(recipe).Error
}
