package taskcore

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/tyemirov/taskdeck/internal/apperr"
	"go.uber.org/zap"
)

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name  string
	Color string
}

// CategoryService applies ownership and uniqueness rules on top of CategoryStore.
type CategoryService struct {
	categories CategoryStore
	logger     *zap.Logger
}

// NewCategoryService wires the category service.
func NewCategoryService(categories CategoryStore, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{categories: categories, logger: logger}
}

// List returns all of the user's categories with their task counts.
func (service *CategoryService) List(ctx context.Context, userID string) ([]Category, error) {
	categories, listErr := service.categories.ListCategories(ctx, userID)
	if listErr != nil {
		service.logger.Error("category listing failed",
			zap.String("code", "categories.list.store_error"),
			zap.Error(listErr))
		return nil, apperr.Internal(listErr)
	}
	return categories, nil
}

// Get returns one of the user's categories by id.
func (service *CategoryService) Get(ctx context.Context, userID string, categoryID string) (*Category, error) {
	if _, parseErr := uuid.Parse(categoryID); parseErr != nil {
		return nil, apperr.BadRequest("Invalid category ID")
	}
	category, findErr := service.categories.FindCategory(ctx, userID, categoryID)
	if findErr != nil {
		if errors.Is(findErr, ErrCategoryNotFound) {
			return nil, apperr.NotFound("Category not found")
		}
		service.logger.Error("category lookup failed",
			zap.String("code", "categories.get.store_error"),
			zap.Error(findErr))
		return nil, apperr.Internal(findErr)
	}
	return category, nil
}

// Create inserts a new category. Names are unique per user.
func (service *CategoryService) Create(ctx context.Context, userID string, input CategoryInput) (*Category, error) {
	category := &Category{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   strings.TrimSpace(input.Name),
		Color:  input.Color,
	}
	created, createErr := service.categories.CreateCategory(ctx, category)
	if createErr != nil {
		if errors.Is(createErr, ErrCategoryNameTaken) {
			return nil, apperr.BadRequest("Category name already exists")
		}
		service.logger.Error("category creation failed",
			zap.String("code", "categories.create.store_error"),
			zap.Error(createErr))
		return nil, apperr.Internal(createErr)
	}
	return created, nil
}

// Update renames or recolors one of the user's categories. Blank fields keep
// the stored value.
func (service *CategoryService) Update(ctx context.Context, userID string, categoryID string, input CategoryInput) (*Category, error) {
	existing, getErr := service.Get(ctx, userID, categoryID)
	if getErr != nil {
		return nil, getErr
	}

	if trimmedName := strings.TrimSpace(input.Name); trimmedName != "" {
		existing.Name = trimmedName
	}
	if input.Color != "" {
		existing.Color = input.Color
	}

	updated, updateErr := service.categories.UpdateCategory(ctx, existing)
	if updateErr != nil {
		if errors.Is(updateErr, ErrCategoryNameTaken) {
			return nil, apperr.BadRequest("Category name already exists")
		}
		if errors.Is(updateErr, ErrCategoryNotFound) {
			return nil, apperr.NotFound("Category not found")
		}
		service.logger.Error("category update failed",
			zap.String("code", "categories.update.store_error"),
			zap.Error(updateErr))
		return nil, apperr.Internal(updateErr)
	}
	return updated, nil
}

// Delete removes one of the user's categories. A category that still has
// tasks attached is refused.
func (service *CategoryService) Delete(ctx context.Context, userID string, categoryID string) error {
	existing, getErr := service.Get(ctx, userID, categoryID)
	if getErr != nil {
		return getErr
	}

	taskCount, countErr := service.categories.CountTasksInCategory(ctx, existing.ID)
	if countErr != nil {
		service.logger.Error("category task count failed",
			zap.String("code", "categories.delete.count_error"),
			zap.Error(countErr))
		return apperr.Internal(countErr)
	}
	if taskCount > 0 {
		return apperr.BadRequest("Cannot delete category with associated tasks. Please reassign or delete the tasks first.")
	}

	deleteErr := service.categories.DeleteCategory(ctx, userID, existing.ID)
	if deleteErr != nil {
		if errors.Is(deleteErr, ErrCategoryNotFound) {
			return apperr.NotFound("Category not found")
		}
		service.logger.Error("category delete failed",
			zap.String("code", "categories.delete.store_error"),
			zap.Error(deleteErr))
		return apperr.Internal(deleteErr)
	}
	return nil
}
