package httpapi

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/tyemirov/taskdeck/internal/apperr"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required,min=2"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required,min=1"`
	Description *string    `json:"description"`
	Status      string     `json:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	DueDate     *time.Time `json:"due_date"`
	CategoryID  *string    `json:"category_id" binding:"omitempty,uuid"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	DueDate     *time.Time `json:"due_date"`
	CategoryID  *string    `json:"category_id" binding:"omitempty,uuid"`
}

type categoryRequest struct {
	Name  string `json:"name" binding:"required,min=1"`
	Color string `json:"color" binding:"required,hexcolor"`
}

type updateCategoryRequest struct {
	Name  string `json:"name" binding:"omitempty,min=1"`
	Color string `json:"color" binding:"omitempty,hexcolor"`
}

// jsonFieldNames maps struct field names to the JSON keys reported in
// validation details.
var jsonFieldNames = map[string]string{
	"Email":       "email",
	"Password":    "password",
	"Name":        "name",
	"Title":       "title",
	"Description": "description",
	"Status":      "status",
	"DueDate":     "due_date",
	"CategoryID":  "category_id",
	"Color":       "color",
}

// bindJSON binds the request body and converts binding failures into the
// Validation taxonomy. A body that does not parse at all (bad JSON, a
// malformed date) has no field-level detail to report.
func bindJSON(contextGin *gin.Context, target any) error {
	bindErr := contextGin.ShouldBindJSON(target)
	if bindErr == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(bindErr, &validationErrors) {
		return apperr.BadRequest("Invalid request body")
	}
	details := make([]apperr.FieldError, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		details = append(details, apperr.FieldError{
			Field:   jsonFieldName(fieldError.Field()),
			Message: validationMessage(fieldError),
		})
	}
	return apperr.Validation(details)
}

// trimmedTooShort reports whether a value falls below the minimum length
// once surrounding whitespace is stripped. Binding tags see the raw
// string, so padding could otherwise sneak a too-short value past the
// min checks; the services store trimmed values.
func trimmedTooShort(value string, minLength int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(value)) < minLength
}

func trimmedFieldError(field string, message string) error {
	return apperr.Validation([]apperr.FieldError{{Field: field, Message: message}})
}

func jsonFieldName(structField string) string {
	if name, known := jsonFieldNames[structField]; known {
		return name
	}
	return structField
}

func validationMessage(fieldError validator.FieldError) string {
	switch fieldError.Field() {
	case "Email":
		return "Please provide a valid email"
	case "Password":
		if fieldError.Tag() == "min" {
			return "Password must be at least 6 characters long"
		}
		return "Password is required"
	case "Name":
		if strings.HasPrefix(fieldError.StructNamespace(), "registerRequest") {
			return "Name must be at least 2 characters long"
		}
		return "Category name is required"
	case "Title":
		return "Title is required"
	case "Status":
		return "Status must be one of: pending, in_progress, completed, cancelled"
	case "CategoryID":
		return "Category ID must be a valid UUID"
	case "Color":
		return "Color must be a valid hex color"
	default:
		return "Invalid value"
	}
}
