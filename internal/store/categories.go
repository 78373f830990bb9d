package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/tyemirov/taskdeck/internal/taskcore"
	"gorm.io/gorm"
)

// CreateCategory inserts the category row. The composite unique index on
// (user_id, name) backs the per-user name rule; a losing concurrent insert
// surfaces as taskcore.ErrCategoryNameTaken.
func (store *Store) CreateCategory(ctx context.Context, category *taskcore.Category) (*taskcore.Category, error) {
	record := categoryRecord{
		ID:     category.ID,
		UserID: category.UserID,
		Name:   category.Name,
		Color:  category.Color,
	}
	if err := store.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("category_store.create.%s: %w", store.driverLabel, taskcore.ErrCategoryNameTaken)
		}
		return nil, fmt.Errorf("category_store.create.%s: %w", store.driverLabel, err)
	}
	created := record.toDomain(0)
	return &created, nil
}

// FindCategory loads one category within the user's rows, with its task count.
func (store *Store) FindCategory(ctx context.Context, userID string, categoryID string) (*taskcore.Category, error) {
	var record categoryRecord
	err := store.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, categoryID).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category_store.find.%s: %w", store.driverLabel, taskcore.ErrCategoryNotFound)
		}
		return nil, fmt.Errorf("category_store.find.%s: %w", store.driverLabel, err)
	}
	taskCount, countErr := store.CountTasksInCategory(ctx, record.ID)
	if countErr != nil {
		return nil, countErr
	}
	category := record.toDomain(taskCount)
	return &category, nil
}

// ListCategories returns the user's categories ordered by name, each with
// its task count. Counts come from one grouped query over the page.
func (store *Store) ListCategories(ctx context.Context, userID string) ([]taskcore.Category, error) {
	var records []categoryRecord
	err := store.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("category_store.list.%s: %w", store.driverLabel, err)
	}

	counts, countErr := store.taskCountsByCategory(ctx, userID)
	if countErr != nil {
		return nil, countErr
	}
	categories := make([]taskcore.Category, 0, len(records))
	for index := range records {
		categories = append(categories, records[index].toDomain(counts[records[index].ID]))
	}
	return categories, nil
}

// UpdateCategory persists name and color. The same unique index that
// guards creation guards renames.
func (store *Store) UpdateCategory(ctx context.Context, category *taskcore.Category) (*taskcore.Category, error) {
	result := store.db.WithContext(ctx).
		Model(&categoryRecord{}).
		Where("user_id = ? AND id = ?", category.UserID, category.ID).
		Updates(map[string]interface{}{
			"name":  category.Name,
			"color": category.Color,
		})
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return nil, fmt.Errorf("category_store.update.%s: %w", store.driverLabel, taskcore.ErrCategoryNameTaken)
		}
		return nil, fmt.Errorf("category_store.update.%s: %w", store.driverLabel, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("category_store.update.%s: %w", store.driverLabel, taskcore.ErrCategoryNotFound)
	}
	return store.FindCategory(ctx, category.UserID, category.ID)
}

// DeleteCategory removes one category within the user's rows. The service
// refuses deletion while tasks reference the category, so no cascade runs
// here.
func (store *Store) DeleteCategory(ctx context.Context, userID string, categoryID string) error {
	result := store.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, categoryID).
		Delete(&categoryRecord{})
	if result.Error != nil {
		return fmt.Errorf("category_store.delete.%s: %w", store.driverLabel, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("category_store.delete.%s: %w", store.driverLabel, taskcore.ErrCategoryNotFound)
	}
	return nil
}

// CountTasksInCategory counts the tasks referencing a category.
func (store *Store) CountTasksInCategory(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	err := store.db.WithContext(ctx).
		Model(&taskRecord{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("category_store.count_tasks.%s: %w", store.driverLabel, err)
	}
	return count, nil
}

type categoryTaskCount struct {
	CategoryID string
	Total      int64
}

func (store *Store) taskCountsByCategory(ctx context.Context, userID string) (map[string]int64, error) {
	var rows []categoryTaskCount
	err := store.db.WithContext(ctx).
		Model(&taskRecord{}).
		Select("category_id AS category_id, COUNT(*) AS total").
		Where("user_id = ? AND category_id IS NOT NULL", userID).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("category_store.task_counts.%s: %w", store.driverLabel, err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Total
	}
	return counts, nil
}
