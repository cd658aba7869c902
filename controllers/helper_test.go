package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskhive/config"
	"taskhive/routes"
)

// envelope mirrors the response body every handler writes.
type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

// setupTestApp builds a full app against an isolated in-memory database.
// Rate limits are raised so tests never trip them.
func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	config.AppConfig = config.Config{
		Environment:      "test",
		JWTSecret:        "test-access-secret",
		JWTRefreshSecret: "test-refresh-secret",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  7 * 24 * time.Hour,
		RateLimitGeneral: 100000,
		RateLimitAuth:    100000,
		PurgeInterval:    time.Hour,
	}

	// A named shared-cache DSN keeps the in-memory database alive across the
	// pool, and one open connection keeps every session on the same database.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.MigrateDB(db))
	config.DB = db

	app := fiber.New()
	routes.SetupRoutes(app, db)
	return app
}

// doRequest performs one request against the app and decodes the envelope.
func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)

	return resp.StatusCode, env
}

type testAccount struct {
	UserID       uint
	AccessToken  string
	RefreshToken string
	Email        string
}

// signup registers an account and returns its tokens.
func signup(t *testing.T, app *fiber.App, name, email string) testAccount {
	t.Helper()

	status, env := doRequest(t, app, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"name":     name,
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	require.True(t, env.Success)

	user := env.Data["user"].(map[string]interface{})
	return testAccount{
		UserID:       uint(user["id"].(float64)),
		AccessToken:  env.Data["accessToken"].(string),
		RefreshToken: env.Data["refreshToken"].(string),
		Email:        email,
	}
}

// createProject creates a project owned by the token's account and returns
// its id.
func createProject(t *testing.T, app *fiber.App, token, name string) uint {
	t.Helper()

	status, env := doRequest(t, app, http.MethodPost, "/api/projects/", token, fiber.Map{
		"name": name,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	return uint(env.Data["id"].(float64))
}

// addMember adds an existing account to a project by email.
func addMember(t *testing.T, app *fiber.App, ownerToken string, projectID uint, email string) {
	t.Helper()

	status, env := doRequest(t, app, http.MethodPost, fmt.Sprintf("/api/projects/%d/members", projectID), ownerToken, fiber.Map{
		"email": email,
	})
	require.Equal(t, http.StatusOK, status, env.Message)
}

// createTask creates a task in the project and returns its id.
func createTask(t *testing.T, app *fiber.App, token string, projectID uint, title string, extra fiber.Map) uint {
	t.Helper()

	body := fiber.Map{
		"projectId": projectID,
		"title":     title,
	}
	for k, v := range extra {
		body[k] = v
	}

	status, env := doRequest(t, app, http.MethodPost, "/api/tasks/", token, body)
	require.Equal(t, http.StatusCreated, status, env.Message)
	return uint(env.Data["id"].(float64))
}
