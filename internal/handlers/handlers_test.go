package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/auth"
	"github.com/taskflow-dev/taskflow/internal/authz"
	"github.com/taskflow-dev/taskflow/internal/config"
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/router"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupRouter wires the full HTTP stack against an in-memory database.
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})

	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := gdb.DB()

	if err != nil {
		t.Fatalf("Failed to get database handle: %v", err)
	}

	sqlDB.SetMaxOpenConns(1)

	err = gdb.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMembership{},
		&models.Task{},
		&models.Comment{},
		&models.Notification{},
	)

	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	db.DB = gdb

	if err := auth.InitJWTSecret("test-secret"); err != nil {
		t.Fatalf("Failed to init JWT secret: %v", err)
	}

	config.App = config.Config{
		Port:         "3000",
		JWTSecret:    "test-secret",
		QRExpiryDays: 30,
	}

	return router.NewRouter()
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

type testUser struct {
	id    uint
	name  string
	token string
}

var emailSeq int

func registerUser(t *testing.T, r *gin.Engine, name string) testUser {
	t.Helper()

	emailSeq++
	email := fmt.Sprintf("%s%d@example.com", name, emailSeq)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "password123",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("register %s = %d: %s", name, w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}

	decodeJSON(t, w, &resp)

	return testUser{id: resp.User.ID, name: name, token: resp.Token}
}

func createProject(t *testing.T, r *gin.Engine, owner testUser, name string) uint {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/projects", owner.token, gin.H{"name": name})

	if w.Code != http.StatusCreated {
		t.Fatalf("create project = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID uint `json:"id"`
	}

	decodeJSON(t, w, &resp)

	return resp.ID
}

// addMember seeds an accepted membership directly, standing in for the
// invite-then-accept flow.
func addMember(t *testing.T, projectID, userID uint, role authz.Role) {
	t.Helper()

	now := time.Now()

	membership := models.ProjectMembership{
		ProjectID: projectID,
		UserID:    userID,
		Role:      string(role),
		Status:    string(authz.StatusAccepted),
		JoinedAt:  &now,
	}

	if err := db.DB.Create(&membership).Error; err != nil {
		t.Fatalf("Failed to add member: %v", err)
	}
}

func createTask(t *testing.T, r *gin.Engine, u testUser, projectID uint, body gin.H) uint {
	t.Helper()

	if body == nil {
		body = gin.H{}
	}

	body["project_id"] = projectID

	w := doJSON(t, r, http.MethodPost, "/api/tasks", u.token, body)

	if w.Code != http.StatusCreated {
		t.Fatalf("create task = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID uint `json:"id"`
	}

	decodeJSON(t, w, &resp)

	return resp.ID
}
