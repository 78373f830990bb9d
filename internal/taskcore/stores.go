package taskcore

import (
	"context"
	"errors"
)

var (
	// ErrTaskNotFound indicates no task matched the id within the user's rows.
	ErrTaskNotFound = errors.New("task_store.not_found")
	// ErrCategoryNotFound indicates no category matched the id within the user's rows.
	ErrCategoryNotFound = errors.New("category_store.not_found")
	// ErrCategoryNameTaken indicates the user already has a category with that name.
	ErrCategoryNameTaken = errors.New("category_store.name_taken")
)

// TaskStore persists tasks. Every operation is scoped to the owning user;
// rows belonging to other users are indistinguishable from absent rows.
type TaskStore interface {
	CreateTask(ctx context.Context, task *Task) (*Task, error)
	FindTask(ctx context.Context, userID string, taskID string) (*Task, error)
	UpdateTask(ctx context.Context, task *Task) (*Task, error)
	DeleteTask(ctx context.Context, userID string, taskID string) error
	ListTasks(ctx context.Context, userID string, filter TaskFilter) ([]Task, int64, error)
}

// CategoryStore persists categories, scoped to the owning user like TaskStore.
type CategoryStore interface {
	CreateCategory(ctx context.Context, category *Category) (*Category, error)
	FindCategory(ctx context.Context, userID string, categoryID string) (*Category, error)
	ListCategories(ctx context.Context, userID string) ([]Category, error)
	UpdateCategory(ctx context.Context, category *Category) (*Category, error)
	DeleteCategory(ctx context.Context, userID string, categoryID string) error
	CountTasksInCategory(ctx context.Context, categoryID string) (int64, error)
}
