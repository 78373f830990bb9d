package store

import (
	"time"

	"github.com/tyemirov/taskdeck/internal/authcore"
	"github.com/tyemirov/taskdeck/internal/taskcore"
)

type userRecord struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (userRecord) TableName() string {
	return "users"
}

func (record *userRecord) toDomain() *authcore.User {
	return &authcore.User{
		ID:           record.ID,
		Email:        record.Email,
		Name:         record.Name,
		PasswordHash: record.PasswordHash,
		CreatedAt:    record.CreatedAt,
	}
}

// Refresh tokens are stored hashed; the raw value never touches disk.
type refreshTokenRecord struct {
	TokenHash string    `gorm:"column:token_hash;primaryKey"`
	UserID    string    `gorm:"column:user_id;index;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (refreshTokenRecord) TableName() string {
	return "refresh_tokens"
}

type categoryRecord struct {
	ID        string    `gorm:"column:id;primaryKey"`
	UserID    string    `gorm:"column:user_id;index:idx_categories_user_name,unique;not null"`
	Name      string    `gorm:"column:name;index:idx_categories_user_name,unique;not null"`
	Color     string    `gorm:"column:color;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (categoryRecord) TableName() string {
	return "categories"
}

func (record *categoryRecord) toDomain(taskCount int64) taskcore.Category {
	return taskcore.Category{
		ID:        record.ID,
		UserID:    record.UserID,
		Name:      record.Name,
		Color:     record.Color,
		CreatedAt: record.CreatedAt,
		TaskCount: taskCount,
	}
}

type taskRecord struct {
	ID          string     `gorm:"column:id;primaryKey"`
	UserID      string     `gorm:"column:user_id;index;not null"`
	CategoryID  *string    `gorm:"column:category_id;index"`
	Title       string     `gorm:"column:title;not null"`
	Description *string    `gorm:"column:description"`
	Status      string     `gorm:"column:status;not null"`
	DueDate     *time.Time `gorm:"column:due_date"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (taskRecord) TableName() string {
	return "tasks"
}

func (record *taskRecord) toDomain(category *taskcore.CategorySummary) taskcore.Task {
	return taskcore.Task{
		ID:          record.ID,
		UserID:      record.UserID,
		CategoryID:  record.CategoryID,
		Title:       record.Title,
		Description: record.Description,
		Status:      taskcore.TaskStatus(record.Status),
		DueDate:     record.DueDate,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
		Category:    category,
	}
}

func taskRecordFromDomain(task *taskcore.Task) taskRecord {
	return taskRecord{
		ID:          task.ID,
		UserID:      task.UserID,
		CategoryID:  task.CategoryID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}
