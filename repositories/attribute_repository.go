package repositories

import (
	"context"
	"errors"
	"fmt"

	"recipe-restful/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttributeRepository is the owner-scoped store for name-only entities
// attached to recipes (tags and ingredients). Every method takes the owner
// explicitly; rows of other owners behave as if they did not exist.
type AttributeRepository[T any] interface {
	List(ctx context.Context, ownerID uint, assignedOnly bool) ([]T, error)
	FindByID(ctx context.Context, ownerID, id uint) (*T, error)
	FindByName(ctx context.Context, ownerID uint, name string) (*T, error)
	// GetOrCreate returns the owner's row with that name, creating it when
	// absent. The bool reports whether a row was created.
	GetOrCreate(ctx context.Context, ownerID uint, name string) (*T, bool, error)
	Rename(ctx context.Context, row *T, name string) error
	Delete(ctx context.Context, row *T) error
}

type labeledModel[T any] interface {
	*T
	models.Labeled
}

type attributeRepository[T any, PT labeledModel[T]] struct {
	db *gorm.DB
	// Join table linking recipes to T and the column holding T's id.
	joinTable  string
	joinColumn string
}

var _ AttributeRepository[models.Tag] = (*attributeRepository[models.Tag, *models.Tag])(nil)

// NewTagRepository returns the repository for tags linked through recipe_tags.
func NewTagRepository(db *gorm.DB) AttributeRepository[models.Tag] {
	return &attributeRepository[models.Tag, *models.Tag]{db: db, joinTable: "recipe_tags", joinColumn: "tag_id"}
}

// NewIngredientRepository returns the repository for ingredients linked through recipe_ingredients.
func NewIngredientRepository(db *gorm.DB) AttributeRepository[models.Ingredient] {
	return &attributeRepository[models.Ingredient, *models.Ingredient]{db: db, joinTable: "recipe_ingredients", joinColumn: "ingredient_id"}
}

// List returns the owner's rows ordered by descending name. With assignedOnly
// only rows linked to at least one recipe are returned; the subquery keeps
// each row once no matter how many recipes share it.
func (r *attributeRepository[T, PT]) List(ctx context.Context, ownerID uint, assignedOnly bool) ([]T, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if assignedOnly {
		query = query.Where("id IN (?)", r.db.Table(r.joinTable).Select(r.joinColumn))
	}

	var rows []T
	if err := query.Order("name DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *attributeRepository[T, PT]) FindByID(ctx context.Context, ownerID, id uint) (*T, error) {
	var row T
	result := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", ownerID, id).First(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	return &row, nil
}

func (r *attributeRepository[T, PT]) FindByName(ctx context.Context, ownerID uint, name string) (*T, error) {
	var row T
	result := r.db.WithContext(ctx).Where("user_id = ? AND name = ?", ownerID, name).Order("id").First(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	return &row, nil
}

// A concurrent insert of the same name loses on the unique index without
// aborting the surrounding transaction; the winner's row is returned.
func (r *attributeRepository[T, PT]) GetOrCreate(ctx context.Context, ownerID uint, name string) (*T, bool, error) {
	existing, err := r.FindByName(ctx, ownerID, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	var row T
	base := PT(&row).Base()
	base.UserID = ownerID
	base.Name = name
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return nil, false, fmt.Errorf("create %q: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		existing, err := r.FindByName(ctx, ownerID, name)
		if err != nil {
			return nil, false, fmt.Errorf("create %q: %w", name, err)
		}
		return existing, false, nil
	}
	return &row, true, nil
}

func (r *attributeRepository[T, PT]) Rename(ctx context.Context, row *T, name string) error {
	base := PT(row).Base()
	result := r.db.WithContext(ctx).Model(row).
		Where("user_id = ?", base.UserID).
		Update("name", name)
	if result.Error != nil {
		return result.Error
	}
	base.Name = name
	return nil
}

// Delete removes the row together with its recipe links.
func (r *attributeRepository[T, PT]) Delete(ctx context.Context, row *T) error {
	base := PT(row).Base()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM "+r.joinTable+" WHERE "+r.joinColumn+" = ?", base.ID).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", base.UserID).Delete(row).Error
	})
}
