package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tyemirov/taskdeck/internal/taskcore"
	"gorm.io/gorm"
)

// CreateTask inserts the task row. The caller assigns the identifier and
// validates the category reference.
func (store *Store) CreateTask(ctx context.Context, task *taskcore.Task) (*taskcore.Task, error) {
	record := taskRecordFromDomain(task)
	if err := store.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("task_store.create.%s: %w", store.driverLabel, err)
	}
	return store.FindTask(ctx, task.UserID, record.ID)
}

// FindTask loads one task with its category summary attached.
func (store *Store) FindTask(ctx context.Context, userID string, taskID string) (*taskcore.Task, error) {
	var record taskRecord
	err := store.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, taskID).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task_store.find.%s: %w", store.driverLabel, taskcore.ErrTaskNotFound)
		}
		return nil, fmt.Errorf("task_store.find.%s: %w", store.driverLabel, err)
	}
	summaries, summaryErr := store.categorySummaries(ctx, []taskRecord{record})
	if summaryErr != nil {
		return nil, summaryErr
	}
	task := record.toDomain(summaryFor(summaries, record.CategoryID))
	return &task, nil
}

// UpdateTask persists the full task row. The service merges partial input
// before calling, so a plain save is correct here.
func (store *Store) UpdateTask(ctx context.Context, task *taskcore.Task) (*taskcore.Task, error) {
	record := taskRecordFromDomain(task)
	result := store.db.WithContext(ctx).
		Model(&taskRecord{}).
		Where("user_id = ? AND id = ?", task.UserID, task.ID).
		Select("category_id", "title", "description", "status", "due_date", "updated_at").
		Updates(map[string]interface{}{
			"category_id": record.CategoryID,
			"title":       record.Title,
			"description": record.Description,
			"status":      record.Status,
			"due_date":    record.DueDate,
			"updated_at":  record.UpdatedAt,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("task_store.update.%s: %w", store.driverLabel, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("task_store.update.%s: %w", store.driverLabel, taskcore.ErrTaskNotFound)
	}
	return store.FindTask(ctx, task.UserID, task.ID)
}

// DeleteTask removes one task within the user's rows.
func (store *Store) DeleteTask(ctx context.Context, userID string, taskID string) error {
	result := store.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, taskID).
		Delete(&taskRecord{})
	if result.Error != nil {
		return fmt.Errorf("task_store.delete.%s: %w", store.driverLabel, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task_store.delete.%s: %w", store.driverLabel, taskcore.ErrTaskNotFound)
	}
	return nil
}

// ListTasks returns one page of the user's tasks plus the unpaged total.
// Filter fields are optional; the sort column comes from a whitelist so
// client input never reaches the ORDER BY clause verbatim.
func (store *Store) ListTasks(ctx context.Context, userID string, filter taskcore.TaskFilter) ([]taskcore.Task, int64, error) {
	query := store.db.WithContext(ctx).Model(&taskRecord{}).Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		query = query.Where(
			"LOWER(title) LIKE LOWER(?) ESCAPE '\\' OR LOWER(COALESCE(description, '')) LIKE LOWER(?) ESCAPE '\\'",
			pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("task_store.list.count.%s: %w", store.driverLabel, err)
	}

	var records []taskRecord
	err := query.
		Order(orderClause(filter.Sort)).
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("task_store.list.%s: %w", store.driverLabel, err)
	}

	summaries, summaryErr := store.categorySummaries(ctx, records)
	if summaryErr != nil {
		return nil, 0, summaryErr
	}
	tasks := make([]taskcore.Task, 0, len(records))
	for index := range records {
		tasks = append(tasks, records[index].toDomain(summaryFor(summaries, records[index].CategoryID)))
	}
	return tasks, total, nil
}

func orderClause(sort string) string {
	switch sort {
	case "due_date":
		return "due_date ASC"
	case "title":
		return "title ASC"
	default:
		return "created_at DESC"
	}
}

func escapeLike(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `%`, `\%`)
	escaped = strings.ReplaceAll(escaped, `_`, `\_`)
	return escaped
}

// categorySummaries loads the summaries for every distinct category id
// referenced by the records, one query per page.
func (store *Store) categorySummaries(ctx context.Context, records []taskRecord) (map[string]taskcore.CategorySummary, error) {
	ids := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for index := range records {
		categoryID := records[index].CategoryID
		if categoryID == nil {
			continue
		}
		if _, dup := seen[*categoryID]; dup {
			continue
		}
		seen[*categoryID] = struct{}{}
		ids = append(ids, *categoryID)
	}
	if len(ids) == 0 {
		return map[string]taskcore.CategorySummary{}, nil
	}
	var categories []categoryRecord
	if err := store.db.WithContext(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("task_store.categories.%s: %w", store.driverLabel, err)
	}
	summaries := make(map[string]taskcore.CategorySummary, len(categories))
	for index := range categories {
		summaries[categories[index].ID] = taskcore.CategorySummary{
			ID:    categories[index].ID,
			Name:  categories[index].Name,
			Color: categories[index].Color,
		}
	}
	return summaries, nil
}

func summaryFor(summaries map[string]taskcore.CategorySummary, categoryID *string) *taskcore.CategorySummary {
	if categoryID == nil {
		return nil
	}
	summary, ok := summaries[*categoryID]
	if !ok {
		return nil
	}
	return &summary
}
