package repositories

import (
	"context"

	"recipe-restful/models"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle, so a unit of
// work can run all of them inside a single transaction.
type Store struct {
	db          *gorm.DB
	Users       UserRepository
	Recipes     RecipeRepository
	Tags        AttributeRepository[models.Tag]
	Ingredients AttributeRepository[models.Ingredient]
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Users:       NewUserRepository(db),
		Recipes:     NewRecipeRepository(db),
		Tags:        NewTagRepository(db),
		Ingredients: NewIngredientRepository(db),
	}
}

// Transaction runs fn with a Store bound to one transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
