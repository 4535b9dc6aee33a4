package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"recipe-restful/models"
	"recipe-restful/repositories"

	"gorm.io/gorm"
)

const maxNameLength = 255

// AttributeService manages one kind of per-owner named entity (tags or
// ingredients). The kind only shows up in error messages.
type AttributeService[T any] interface {
	List(ctx context.Context, ownerID uint, assignedOnly bool) ([]T, error)
	Get(ctx context.Context, ownerID, id uint) (*T, error)
	// Create returns the owner's existing row when the name is already taken;
	// the bool reports whether a new row was made.
	Create(ctx context.Context, ownerID uint, input *AttributeInput) (*T, bool, error)
	Update(ctx context.Context, ownerID, id uint, input *AttributeInput, partial bool) (*T, error)
	Delete(ctx context.Context, ownerID, id uint) error
}

// AttributeInput is the body of tag/ingredient writes and the descriptor
// embedded in recipe payloads.
type AttributeInput struct {
	Name *string `json:"name" description:"Display name, unique per owner"`
}

type labeledModel[T any] interface {
	*T
	models.Labeled
}

type attributeService[T any, PT labeledModel[T]] struct {
	repo repositories.AttributeRepository[T]
	kind string
}

var _ AttributeService[models.Tag] = (*attributeService[models.Tag, *models.Tag])(nil)

// NewAttributeService creates the service for T; kind names it in messages
// ("tag", "ingredient").
func NewAttributeService[T any, PT labeledModel[T]](repo repositories.AttributeRepository[T], kind string) AttributeService[T] {
	return &attributeService[T, PT]{repo: repo, kind: kind}
}

// cleanName trims the name and checks it is usable.
func cleanName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationErrorf("%s name may not be blank", kind)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", validationErrorf("%s name must be at most %d characters", kind, maxNameLength)
	}
	return name, nil
}

func (s *attributeService[T, PT]) List(ctx context.Context, ownerID uint, assignedOnly bool) ([]T, error) {
	rows, err := s.repo.List(ctx, ownerID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("database error listing %ss: %w", s.kind, err)
	}
	return rows, nil
}

func (s *attributeService[T, PT]) Get(ctx context.Context, ownerID, id uint) (*T, error) {
	row, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, notFoundOr(err, s.kind)
	}
	return row, nil
}

func (s *attributeService[T, PT]) Create(ctx context.Context, ownerID uint, input *AttributeInput) (*T, bool, error) {
	if input.Name == nil {
		return nil, false, validationErrorf("name is required")
	}
	name, err := cleanName(s.kind, *input.Name)
	if err != nil {
		return nil, false, err
	}

	row, created, err := s.repo.GetOrCreate(ctx, ownerID, name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create %s: %w", s.kind, err)
	}
	return row, created, nil
}

// Update renames the row. PATCH without a name leaves it as is; renaming onto
// another row's name is rejected so names stay unique per owner.
func (s *attributeService[T, PT]) Update(ctx context.Context, ownerID, id uint, input *AttributeInput, partial bool) (*T, error) {
	if input.Name == nil && !partial {
		return nil, validationErrorf("name is required")
	}

	row, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if input.Name == nil {
		return row, nil
	}

	name, err := cleanName(s.kind, *input.Name)
	if err != nil {
		return nil, err
	}
	if name == PT(row).Base().Name {
		return row, nil
	}

	clash, err := s.repo.FindByName(ctx, ownerID, name)
	if err == nil && PT(clash).Base().ID != id {
		return nil, validationErrorf("%s with name %q already exists", s.kind, name)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error checking %s name: %w", s.kind, err)
	}

	if err := s.repo.Rename(ctx, row, name); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationErrorf("%s with name %q already exists", s.kind, name)
		}
		return nil, fmt.Errorf("failed to update %s: %w", s.kind, err)
	}
	return row, nil
}

func (s *attributeService[T, PT]) Delete(ctx context.Context, ownerID, id uint) error {
	row, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, row); err != nil {
		return fmt.Errorf("failed to delete %s: %w", s.kind, err)
	}
	return nil
}
