package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/taskdeck/internal/authcore"
	"github.com/tyemirov/taskdeck/internal/store"
	"github.com/tyemirov/taskdeck/internal/taskcore"
	"github.com/tyemirov/taskdeck/pkg/bearerauth"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

var routerTestSequence atomic.Int64

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	databaseURL := fmt.Sprintf("sqlite:file:routertest%d?mode=memory&cache=shared", routerTestSequence.Add(1))
	dataStore, openErr := store.Open(context.Background(), databaseURL)
	if openErr != nil {
		t.Fatalf("failed to open store: %v", openErr)
	}
	t.Cleanup(func() {
		_ = dataStore.Close()
	})

	clock := authcore.NewSystemClock()
	hasher, hasherErr := authcore.NewBcryptHasher(bcrypt.MinCost)
	if hasherErr != nil {
		t.Fatalf("failed to build hasher: %v", hasherErr)
	}
	codec, codecErr := authcore.NewTokenCodec(authcore.Config{
		AccessSigningKey:  []byte("access-test-secret"),
		RefreshSigningKey: []byte("refresh-test-secret"),
		Issuer:            "taskdeck",
		AccessTTL:         15 * time.Minute,
		RefreshTTL:        168 * time.Hour,
		BcryptCost:        bcrypt.MinCost,
	}, clock)
	if codecErr != nil {
		t.Fatalf("failed to build codec: %v", codecErr)
	}
	tokenValidator, validatorErr := bearerauth.New(bearerauth.Config{
		SigningKey: []byte("access-test-secret"),
		Issuer:     "taskdeck",
		Clock:      clock,
	})
	if validatorErr != nil {
		t.Fatalf("failed to build validator: %v", validatorErr)
	}

	metrics := authcore.NewCounterMetrics()
	authService := authcore.NewService(dataStore, dataStore, hasher, codec, clock, logger, metrics)
	taskService := taskcore.NewTaskService(dataStore, dataStore, logger)
	categoryService := taskcore.NewCategoryService(dataStore, logger)

	return NewRouter(RouterConfig{
		Logger:          logger,
		AuthService:     authService,
		TaskService:     taskService,
		CategoryService: categoryService,
		TokenValidator:  tokenValidator,
		Users:           dataStore,
		Metrics:         metrics,
	})
}

func performJSON(t *testing.T, router *gin.Engine, method string, path string, accessToken string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			t.Fatalf("failed to marshal body: %v", marshalErr)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		request.Header.Set("Authorization", "Bearer "+accessToken)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var decoded map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode body %q: %v", recorder.Body.String(), err)
	}
	return decoded
}

func registerAndLogin(t *testing.T, router *gin.Engine, email string) (accessToken string, refreshToken string) {
	t.Helper()
	registerRecorder := performJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": email, "password": "password123", "name": "Test User",
	})
	if registerRecorder.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", registerRecorder.Code, registerRecorder.Body.String())
	}
	loginRecorder := performJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": email, "password": "password123",
	})
	if loginRecorder.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", loginRecorder.Code, loginRecorder.Body.String())
	}
	loginBody := decodeBody(t, loginRecorder)
	accessToken, _ = loginBody["accessToken"].(string)
	refreshToken, _ = loginBody["refreshToken"].(string)
	if accessToken == "" || refreshToken == "" {
		t.Fatalf("expected token pair in login response: %v", loginBody)
	}
	return accessToken, refreshToken
}

func TestHealthAndNotFound(t *testing.T) {
	router := newTestRouter(t)

	healthRecorder := performJSON(t, router, http.MethodGet, "/", "", nil)
	if healthRecorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", healthRecorder.Code)
	}
	healthBody := decodeBody(t, healthRecorder)
	if healthBody["message"] != "Task Manager API is running!" || healthBody["status"] != "healthy" {
		t.Fatalf("unexpected health body: %v", healthBody)
	}

	missingRecorder := performJSON(t, router, http.MethodGet, "/nope", "", nil)
	if missingRecorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missingRecorder.Code)
	}
	if decodeBody(t, missingRecorder)["error"] != "Route not found" {
		t.Fatalf("unexpected 404 body: %s", missingRecorder.Body.String())
	}
}

func TestRegisterValidationDetails(t *testing.T) {
	router := newTestRouter(t)

	recorder := performJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "not-an-email", "password": "short", "name": "A",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", recorder.Code, recorder.Body.String())
	}
	body := decodeBody(t, recorder)
	if body["error"] != "Validation failed" {
		t.Fatalf("expected Validation failed, got %v", body["error"])
	}
	details, ok := body["details"].([]any)
	if !ok || len(details) != 3 {
		t.Fatalf("expected 3 field errors, got %v", body["details"])
	}
}

func TestRegisterRejectsPaddedShortName(t *testing.T) {
	router := newTestRouter(t)

	recorder := performJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "padded@example.com", "password": "password123", "name": "  A ",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", recorder.Code, recorder.Body.String())
	}
	body := decodeBody(t, recorder)
	if body["error"] != "Validation failed" {
		t.Fatalf("expected Validation failed, got %v", body["error"])
	}
	details, ok := body["details"].([]any)
	if !ok || len(details) != 1 {
		t.Fatalf("expected 1 field error, got %v", body["details"])
	}
	detail, _ := details[0].(map[string]any)
	if detail["field"] != "name" || detail["message"] != "Name must be at least 2 characters long" {
		t.Fatalf("unexpected detail: %v", detail)
	}
}

func TestAuthFlowEndToEnd(t *testing.T) {
	router := newTestRouter(t)

	registerRecorder := performJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "Flow@Example.com", "password": "password123", "name": "Flow User",
	})
	if registerRecorder.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", registerRecorder.Code, registerRecorder.Body.String())
	}
	registerBody := decodeBody(t, registerRecorder)
	if registerBody["message"] != "User registered successfully" {
		t.Fatalf("unexpected register message: %v", registerBody["message"])
	}
	registeredUser, _ := registerBody["user"].(map[string]any)
	if registeredUser["email"] != "flow@example.com" {
		t.Fatalf("expected normalized email, got %v", registeredUser["email"])
	}

	duplicateRecorder := performJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "flow@example.com", "password": "different1", "name": "Other",
	})
	if duplicateRecorder.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", duplicateRecorder.Code)
	}

	wrongPasswordRecorder := performJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "flow@example.com", "password": "wrongpassword",
	})
	unknownEmailRecorder := performJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "ghost@example.com", "password": "password123",
	})
	if wrongPasswordRecorder.Code != http.StatusUnauthorized || unknownEmailRecorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both failures, got %d and %d", wrongPasswordRecorder.Code, unknownEmailRecorder.Code)
	}
	if wrongPasswordRecorder.Body.String() != unknownEmailRecorder.Body.String() {
		t.Fatalf("login failures must be indistinguishable: %s vs %s",
			wrongPasswordRecorder.Body.String(), unknownEmailRecorder.Body.String())
	}

	loginRecorder := performJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "flow@example.com", "password": "password123",
	})
	if loginRecorder.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", loginRecorder.Code, loginRecorder.Body.String())
	}
	loginBody := decodeBody(t, loginRecorder)
	accessToken, _ := loginBody["accessToken"].(string)
	refreshToken, _ := loginBody["refreshToken"].(string)

	meRecorder := performJSON(t, router, http.MethodGet, "/api/auth/me", accessToken, nil)
	if meRecorder.Code != http.StatusOK {
		t.Fatalf("me failed: %d %s", meRecorder.Code, meRecorder.Body.String())
	}
	meUser, _ := decodeBody(t, meRecorder)["user"].(map[string]any)
	if meUser["email"] != "flow@example.com" {
		t.Fatalf("unexpected me payload: %v", meUser)
	}

	// Refresh twice with the same token: no rotation side effect.
	for attempt := 0; attempt < 2; attempt++ {
		refreshRecorder := performJSON(t, router, http.MethodPost, "/api/auth/refresh", "", gin.H{
			"refreshToken": refreshToken,
		})
		if refreshRecorder.Code != http.StatusOK {
			t.Fatalf("refresh attempt %d failed: %d %s", attempt, refreshRecorder.Code, refreshRecorder.Body.String())
		}
		refreshBody := decodeBody(t, refreshRecorder)
		if newToken, _ := refreshBody["accessToken"].(string); newToken == "" {
			t.Fatalf("expected access token on refresh, got %v", refreshBody)
		}
		if _, hasRefresh := refreshBody["refreshToken"]; hasRefresh {
			t.Fatalf("refresh must not return a new refresh token: %v", refreshBody)
		}
	}

	logoutRecorder := performJSON(t, router, http.MethodPost, "/api/auth/logout", "", gin.H{
		"refreshToken": refreshToken,
	})
	if logoutRecorder.Code != http.StatusOK {
		t.Fatalf("logout failed: %d %s", logoutRecorder.Code, logoutRecorder.Body.String())
	}

	afterLogoutRecorder := performJSON(t, router, http.MethodPost, "/api/auth/refresh", "", gin.H{
		"refreshToken": refreshToken,
	})
	if afterLogoutRecorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d %s", afterLogoutRecorder.Code, afterLogoutRecorder.Body.String())
	}

	missingTokenRecorder := performJSON(t, router, http.MethodPost, "/api/auth/refresh", "", gin.H{})
	if missingTokenRecorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing refresh token, got %d", missingTokenRecorder.Code)
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	router := newTestRouter(t)

	recorder := performJSON(t, router, http.MethodGet, "/api/tasks", "", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if decodeBody(t, recorder)["error"] != "Access token required" {
		t.Fatalf("unexpected body: %s", recorder.Body.String())
	}

	garbageRecorder := performJSON(t, router, http.MethodGet, "/api/tasks", "not-a-token", nil)
	if garbageRecorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for garbage token, got %d", garbageRecorder.Code)
	}
	if decodeBody(t, garbageRecorder)["error"] != "Invalid or expired token" {
		t.Fatalf("unexpected body: %s", garbageRecorder.Body.String())
	}
}

func TestTaskAndCategoryFlow(t *testing.T) {
	router := newTestRouter(t)
	accessToken, _ := registerAndLogin(t, router, "tasks@example.com")

	categoryRecorder := performJSON(t, router, http.MethodPost, "/api/categories", accessToken, gin.H{
		"name": "Work", "color": "#FF5733",
	})
	if categoryRecorder.Code != http.StatusCreated {
		t.Fatalf("category create failed: %d %s", categoryRecorder.Code, categoryRecorder.Body.String())
	}
	category, _ := decodeBody(t, categoryRecorder)["category"].(map[string]any)
	categoryID, _ := category["id"].(string)
	if categoryID == "" {
		t.Fatalf("expected category id, got %v", category)
	}

	duplicateCategoryRecorder := performJSON(t, router, http.MethodPost, "/api/categories", accessToken, gin.H{
		"name": "Work", "color": "#000000",
	})
	if duplicateCategoryRecorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate name, got %d", duplicateCategoryRecorder.Code)
	}
	if decodeBody(t, duplicateCategoryRecorder)["error"] != "Category name already exists" {
		t.Fatalf("unexpected body: %s", duplicateCategoryRecorder.Body.String())
	}

	badColorRecorder := performJSON(t, router, http.MethodPost, "/api/categories", accessToken, gin.H{
		"name": "Play", "color": "red",
	})
	if badColorRecorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid color, got %d", badColorRecorder.Code)
	}

	taskRecorder := performJSON(t, router, http.MethodPost, "/api/tasks", accessToken, gin.H{
		"title": "Write report", "description": "quarterly numbers", "category_id": categoryID,
	})
	if taskRecorder.Code != http.StatusCreated {
		t.Fatalf("task create failed: %d %s", taskRecorder.Code, taskRecorder.Body.String())
	}
	task, _ := decodeBody(t, taskRecorder)["task"].(map[string]any)
	taskID, _ := task["id"].(string)
	if task["status"] != "pending" {
		t.Fatalf("expected default pending status, got %v", task["status"])
	}
	attachedCategory, _ := task["category"].(map[string]any)
	if attachedCategory["name"] != "Work" {
		t.Fatalf("expected attached category summary, got %v", task["category"])
	}

	listRecorder := performJSON(t, router, http.MethodGet, "/api/tasks?status=pending&search=report", accessToken, nil)
	if listRecorder.Code != http.StatusOK {
		t.Fatalf("list failed: %d %s", listRecorder.Code, listRecorder.Body.String())
	}
	listBody := decodeBody(t, listRecorder)
	pagination, _ := listBody["pagination"].(map[string]any)
	if pagination["total"] != float64(1) || pagination["page"] != float64(1) {
		t.Fatalf("unexpected pagination: %v", pagination)
	}

	updateRecorder := performJSON(t, router, http.MethodPut, "/api/tasks/"+taskID, accessToken, gin.H{
		"status": "completed",
	})
	if updateRecorder.Code != http.StatusOK {
		t.Fatalf("task update failed: %d %s", updateRecorder.Code, updateRecorder.Body.String())
	}
	updatedTask, _ := decodeBody(t, updateRecorder)["task"].(map[string]any)
	if updatedTask["status"] != "completed" || updatedTask["title"] != "Write report" {
		t.Fatalf("unexpected updated task: %v", updatedTask)
	}

	// The category still has a task attached: deletion is refused.
	blockedDeleteRecorder := performJSON(t, router, http.MethodDelete, "/api/categories/"+categoryID, accessToken, nil)
	if blockedDeleteRecorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 while tasks reference the category, got %d", blockedDeleteRecorder.Code)
	}

	deleteTaskRecorder := performJSON(t, router, http.MethodDelete, "/api/tasks/"+taskID, accessToken, nil)
	if deleteTaskRecorder.Code != http.StatusOK {
		t.Fatalf("task delete failed: %d %s", deleteTaskRecorder.Code, deleteTaskRecorder.Body.String())
	}

	deleteCategoryRecorder := performJSON(t, router, http.MethodDelete, "/api/categories/"+categoryID, accessToken, nil)
	if deleteCategoryRecorder.Code != http.StatusOK {
		t.Fatalf("category delete failed: %d %s", deleteCategoryRecorder.Code, deleteCategoryRecorder.Body.String())
	}

	invalidIDRecorder := performJSON(t, router, http.MethodGet, "/api/tasks/not-a-uuid", accessToken, nil)
	if invalidIDRecorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", invalidIDRecorder.Code)
	}
}

func TestTasksAreScopedPerUser(t *testing.T) {
	router := newTestRouter(t)
	firstToken, _ := registerAndLogin(t, router, "first@example.com")
	secondToken, _ := registerAndLogin(t, router, "second@example.com")

	taskRecorder := performJSON(t, router, http.MethodPost, "/api/tasks", firstToken, gin.H{
		"title": "Private task",
	})
	if taskRecorder.Code != http.StatusCreated {
		t.Fatalf("task create failed: %d", taskRecorder.Code)
	}
	task, _ := decodeBody(t, taskRecorder)["task"].(map[string]any)
	taskID, _ := task["id"].(string)

	foreignRecorder := performJSON(t, router, http.MethodGet, "/api/tasks/"+taskID, secondToken, nil)
	if foreignRecorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign task, got %d", foreignRecorder.Code)
	}
}

func TestMetricsSnapshotEndpoint(t *testing.T) {
	router := newTestRouter(t)
	registerAndLogin(t, router, "metrics@example.com")

	recorder := performJSON(t, router, http.MethodGet, "/metrics", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("metrics failed: %d", recorder.Code)
	}
	snapshot := decodeBody(t, recorder)
	if snapshot[authcore.EventRegisterSuccess] != float64(1) || snapshot[authcore.EventLoginSuccess] != float64(1) {
		t.Fatalf("unexpected metrics snapshot: %v", snapshot)
	}
}
