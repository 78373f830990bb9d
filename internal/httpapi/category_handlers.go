package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/taskdeck/internal/authcore"
	"github.com/tyemirov/taskdeck/internal/taskcore"
	"go.uber.org/zap"
)

// MountCategoryRoutes registers the /categories CRUD routes. Like the task
// routes, the caller applies the authentication middleware on the group.
func MountCategoryRoutes(router gin.IRouter, service *taskcore.CategoryService, logger *zap.Logger) {
	router.GET("/categories", func(contextGin *gin.Context) {
		currentUser, found := authcore.CurrentUser(contextGin)
		if !found {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		categories, listErr := service.List(contextGin.Request.Context(), currentUser.ID)
		if listErr != nil {
			writeError(contextGin, logger, listErr)
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{"categories": categories})
	})

	router.GET("/categories/:id", func(contextGin *gin.Context) {
		currentUser, found := authcore.CurrentUser(contextGin)
		if !found {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		category, getErr := service.Get(contextGin.Request.Context(), currentUser.ID, contextGin.Param("id"))
		if getErr != nil {
			writeError(contextGin, logger, getErr)
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{"category": category})
	})

	router.POST("/categories", func(contextGin *gin.Context) {
		currentUser, found := authcore.CurrentUser(contextGin)
		if !found {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		var inbound categoryRequest
		if bindErr := bindJSON(contextGin, &inbound); bindErr != nil {
			writeError(contextGin, logger, bindErr)
			return
		}
		if trimmedTooShort(inbound.Name, 1) {
			writeError(contextGin, logger, trimmedFieldError("name", "Category name is required"))
			return
		}
		category, createErr := service.Create(contextGin.Request.Context(), currentUser.ID, taskcore.CategoryInput{
			Name:  inbound.Name,
			Color: inbound.Color,
		})
		if createErr != nil {
			writeError(contextGin, logger, createErr)
			return
		}
		contextGin.JSON(http.StatusCreated, gin.H{
			"message":  "Category created successfully",
			"category": category,
		})
	})

	router.PUT("/categories/:id", func(contextGin *gin.Context) {
		currentUser, found := authcore.CurrentUser(contextGin)
		if !found {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		var inbound updateCategoryRequest
		if bindErr := bindJSON(contextGin, &inbound); bindErr != nil {
			writeError(contextGin, logger, bindErr)
			return
		}
		if inbound.Name != "" && trimmedTooShort(inbound.Name, 1) {
			writeError(contextGin, logger, trimmedFieldError("name", "Category name is required"))
			return
		}
		category, updateErr := service.Update(contextGin.Request.Context(), currentUser.ID, contextGin.Param("id"), taskcore.CategoryInput{
			Name:  inbound.Name,
			Color: inbound.Color,
		})
		if updateErr != nil {
			writeError(contextGin, logger, updateErr)
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{
			"message":  "Category updated successfully",
			"category": category,
		})
	})

	router.DELETE("/categories/:id", func(contextGin *gin.Context) {
		currentUser, found := authcore.CurrentUser(contextGin)
		if !found {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		if deleteErr := service.Delete(contextGin.Request.Context(), currentUser.ID, contextGin.Param("id")); deleteErr != nil {
			writeError(contextGin, logger, deleteErr)
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
	})
}
