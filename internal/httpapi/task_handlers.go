package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/taskdeck/internal/authcore"
	"github.com/tyemirov/taskdeck/internal/taskcore"
	"go.uber.org/zap"
)

// MountTaskRoutes registers the /tasks CRUD routes. The caller applies the
// authentication middleware on the group; every handler resolves the
// current user from the request context.
func MountTaskRoutes(router gin.IRouter, service *taskcore.TaskService, logger *zap.Logger) {
	router.GET("/tasks", func(contextGin *gin.Context) {
		currentUser, found := authcore.CurrentUser(contextGin)
		if !found {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		page, listErr := service.List(contextGin.Request.Context(), currentUser.ID, taskFilterFromQuery(contextGin))
		if listErr != nil {
			writeError(contextGin, logger, listErr)
			return
		}
		contextGin.JSON(http.StatusOK, page)
	})

	router.GET("/tasks/:id", func(contextGin *gin.Context) {
		currentUser, found := authcore.CurrentUser(contextGin)
		if !found {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		task, getErr := service.Get(contextGin.Request.Context(), currentUser.ID, contextGin.Param("id"))
		if getErr != nil {
			writeError(contextGin, logger, getErr)
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{"task": task})
	})

	router.POST("/tasks", func(contextGin *gin.Context) {
		currentUser, found := authcore.CurrentUser(contextGin)
		if !found {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		var inbound createTaskRequest
		if bindErr := bindJSON(contextGin, &inbound); bindErr != nil {
			writeError(contextGin, logger, bindErr)
			return
		}
		if trimmedTooShort(inbound.Title, 1) {
			writeError(contextGin, logger, trimmedFieldError("title", "Title is required"))
			return
		}
		task, createErr := service.Create(contextGin.Request.Context(), currentUser.ID, taskcore.CreateTaskInput{
			Title:       inbound.Title,
			Description: inbound.Description,
			DueDate:     inbound.DueDate,
			Status:      inbound.Status,
			CategoryID:  inbound.CategoryID,
		})
		if createErr != nil {
			writeError(contextGin, logger, createErr)
			return
		}
		contextGin.JSON(http.StatusCreated, gin.H{
			"message": "Task created successfully",
			"task":    task,
		})
	})

	router.PUT("/tasks/:id", func(contextGin *gin.Context) {
		currentUser, found := authcore.CurrentUser(contextGin)
		if !found {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		var inbound updateTaskRequest
		if bindErr := bindJSON(contextGin, &inbound); bindErr != nil {
			writeError(contextGin, logger, bindErr)
			return
		}
		if inbound.Title != nil && trimmedTooShort(*inbound.Title, 1) {
			writeError(contextGin, logger, trimmedFieldError("title", "Title is required"))
			return
		}
		task, updateErr := service.Update(contextGin.Request.Context(), currentUser.ID, contextGin.Param("id"), taskcore.UpdateTaskInput{
			Title:       inbound.Title,
			Description: inbound.Description,
			DueDate:     inbound.DueDate,
			Status:      inbound.Status,
			CategoryID:  inbound.CategoryID,
		})
		if updateErr != nil {
			writeError(contextGin, logger, updateErr)
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{
			"message": "Task updated successfully",
			"task":    task,
		})
	})

	router.DELETE("/tasks/:id", func(contextGin *gin.Context) {
		currentUser, found := authcore.CurrentUser(contextGin)
		if !found {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		if deleteErr := service.Delete(contextGin.Request.Context(), currentUser.ID, contextGin.Param("id")); deleteErr != nil {
			writeError(contextGin, logger, deleteErr)
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
	})
}

func taskFilterFromQuery(contextGin *gin.Context) taskcore.TaskFilter {
	filter := taskcore.TaskFilter{
		Status:     contextGin.Query("status"),
		CategoryID: contextGin.Query("category_id"),
		Search:     contextGin.Query("search"),
		Sort:       contextGin.Query("sort"),
	}
	if pageValue, parseErr := strconv.Atoi(contextGin.Query("page")); parseErr == nil {
		filter.Page = pageValue
	}
	if limitValue, parseErr := strconv.Atoi(contextGin.Query("limit")); parseErr == nil {
		filter.Limit = limitValue
	}
	return filter
}
