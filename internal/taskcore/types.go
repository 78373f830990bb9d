// Package taskcore holds the task and category domain: types, store
// contracts, and the per-user ownership rules the handlers rely on.
package taskcore

import "time"

// TaskStatus enumerates the task lifecycle states.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// Valid reports whether the status is one of the known states.
func (status TaskStatus) Valid() bool {
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// CategorySummary is the category projection embedded in task payloads.
type CategorySummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Category is a per-user task grouping. Name is unique within a user.
type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	TaskCount int64     `json:"task_count"`
}

// Summary projects the embedded category fields.
func (category *Category) Summary() CategorySummary {
	return CategorySummary{
		ID:    category.ID,
		Name:  category.Name,
		Color: category.Color,
	}
}

// Task is a user-owned work item, optionally grouped into a category.
type Task struct {
	ID          string           `json:"id"`
	UserID      string           `json:"-"`
	CategoryID  *string          `json:"category_id"`
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Status      TaskStatus       `json:"status"`
	DueDate     *time.Time       `json:"due_date"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Category    *CategorySummary `json:"category"`
}

// TaskFilter narrows and orders a task listing.
type TaskFilter struct {
	Status     string
	CategoryID string
	Search     string
	Sort       string
	Page       int
	Limit      int
}

// Pagination describes the listing window that was returned.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Normalize clamps the paging window to sane values.
func (filter *TaskFilter) Normalize() {
	if filter.Page < 1 {
		filter.Page = defaultPage
	}
	if filter.Limit < 1 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
}
