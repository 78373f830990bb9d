package taskcore

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tyemirov/taskdeck/internal/apperr"
	"go.uber.org/zap"
)

// CreateTaskInput carries the fields accepted when creating a task.
type CreateTaskInput struct {
	Title       string
	Description *string
	DueDate     *time.Time
	Status      string
	CategoryID  *string
}

// UpdateTaskInput carries a partial task update. Nil fields keep the stored
// value; an empty CategoryID string detaches the task from its category.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *string
	CategoryID  *string
}

// TaskService applies ownership and category rules on top of TaskStore.
type TaskService struct {
	tasks      TaskStore
	categories CategoryStore
	logger     *zap.Logger
}

// NewTaskService wires the task service.
func NewTaskService(tasks TaskStore, categories CategoryStore, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{tasks: tasks, categories: categories, logger: logger}
}

// List returns one page of the user's tasks.
func (service *TaskService) List(ctx context.Context, userID string, filter TaskFilter) (*TaskPage, error) {
	filter.Normalize()
	tasks, total, listErr := service.tasks.ListTasks(ctx, userID, filter)
	if listErr != nil {
		service.logger.Error("task listing failed",
			zap.String("code", "tasks.list.store_error"),
			zap.Error(listErr))
		return nil, apperr.Internal(listErr)
	}
	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	return &TaskPage{
		Tasks: tasks,
		Pagination: Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    filter.Page < totalPages,
			HasPrev:    filter.Page > 1,
		},
	}, nil
}

// Get returns one of the user's tasks by id.
func (service *TaskService) Get(ctx context.Context, userID string, taskID string) (*Task, error) {
	if _, parseErr := uuid.Parse(taskID); parseErr != nil {
		return nil, apperr.BadRequest("Invalid task ID")
	}
	task, findErr := service.tasks.FindTask(ctx, userID, taskID)
	if findErr != nil {
		if errors.Is(findErr, ErrTaskNotFound) {
			return nil, apperr.NotFound("Task not found")
		}
		service.logger.Error("task lookup failed",
			zap.String("code", "tasks.get.store_error"),
			zap.Error(findErr))
		return nil, apperr.Internal(findErr)
	}
	return task, nil
}

// Create inserts a new task for the user. A referenced category must belong
// to the same user.
func (service *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (*Task, error) {
	categoryID, validateErr := service.validateCategoryReference(ctx, userID, input.CategoryID)
	if validateErr != nil {
		return nil, validateErr
	}

	status := StatusPending
	if strings.TrimSpace(input.Status) != "" {
		status = TaskStatus(input.Status)
	}

	task := &Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		CategoryID:  categoryID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      status,
		DueDate:     input.DueDate,
	}
	created, createErr := service.tasks.CreateTask(ctx, task)
	if createErr != nil {
		service.logger.Error("task creation failed",
			zap.String("code", "tasks.create.store_error"),
			zap.Error(createErr))
		return nil, apperr.Internal(createErr)
	}
	service.logger.Info("task created",
		zap.String("code", "tasks.create.ok"),
		zap.String("task_id", created.ID),
		zap.String("user_id", userID))
	return created, nil
}

// Update applies a partial update to one of the user's tasks.
func (service *TaskService) Update(ctx context.Context, userID string, taskID string, input UpdateTaskInput) (*Task, error) {
	existing, getErr := service.Get(ctx, userID, taskID)
	if getErr != nil {
		return nil, getErr
	}

	if input.CategoryID != nil {
		if *input.CategoryID == "" {
			existing.CategoryID = nil
		} else {
			categoryID, validateErr := service.validateCategoryReference(ctx, userID, input.CategoryID)
			if validateErr != nil {
				return nil, validateErr
			}
			existing.CategoryID = categoryID
		}
	}
	if input.Title != nil {
		existing.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		existing.Description = input.Description
	}
	if input.DueDate != nil {
		existing.DueDate = input.DueDate
	}
	if input.Status != nil {
		existing.Status = TaskStatus(*input.Status)
	}

	updated, updateErr := service.tasks.UpdateTask(ctx, existing)
	if updateErr != nil {
		if errors.Is(updateErr, ErrTaskNotFound) {
			return nil, apperr.NotFound("Task not found")
		}
		service.logger.Error("task update failed",
			zap.String("code", "tasks.update.store_error"),
			zap.Error(updateErr))
		return nil, apperr.Internal(updateErr)
	}
	return updated, nil
}

// Delete removes one of the user's tasks.
func (service *TaskService) Delete(ctx context.Context, userID string, taskID string) error {
	if _, parseErr := uuid.Parse(taskID); parseErr != nil {
		return apperr.BadRequest("Invalid task ID")
	}
	deleteErr := service.tasks.DeleteTask(ctx, userID, taskID)
	if deleteErr != nil {
		if errors.Is(deleteErr, ErrTaskNotFound) {
			return apperr.NotFound("Task not found")
		}
		service.logger.Error("task delete failed",
			zap.String("code", "tasks.delete.store_error"),
			zap.Error(deleteErr))
		return apperr.Internal(deleteErr)
	}
	return nil
}

func (service *TaskService) validateCategoryReference(ctx context.Context, userID string, categoryID *string) (*string, error) {
	if categoryID == nil || *categoryID == "" {
		return nil, nil
	}
	if _, parseErr := uuid.Parse(*categoryID); parseErr != nil {
		return nil, apperr.BadRequest("Invalid category")
	}
	_, findErr := service.categories.FindCategory(ctx, userID, *categoryID)
	if findErr != nil {
		if errors.Is(findErr, ErrCategoryNotFound) {
			return nil, apperr.BadRequest("Invalid category")
		}
		service.logger.Error("category reference lookup failed",
			zap.String("code", "tasks.category_ref.store_error"),
			zap.Error(findErr))
		return nil, apperr.Internal(findErr)
	}
	reference := *categoryID
	return &reference, nil
}
