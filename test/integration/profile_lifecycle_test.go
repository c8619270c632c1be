package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taskhub/taskhub/internal/database"
	"github.com/taskhub/taskhub/internal/domain"
	"github.com/taskhub/taskhub/internal/http/handler"
	"github.com/taskhub/taskhub/internal/http/router"
	"github.com/taskhub/taskhub/internal/repository"
	"github.com/taskhub/taskhub/internal/security"
	"github.com/taskhub/taskhub/internal/service"
)

const testJWTSecret = "abcdefghijklmnopqrstuvwxyz123456"

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// memStorage is an in-memory StorageService for tests that do not need a
// real object store.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (m *memStorage) UploadAvatar(_ context.Context, file io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("avatars/%s.png", uuid.New().String())
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return key, nil
}

func (m *memStorage) DeleteAvatar(_ context.Context, objectKey string) error {
	m.mu.Lock()
	delete(m.objects, objectKey)
	m.mu.Unlock()
	return nil
}

func (m *memStorage) GenerateAvatarURL(_ context.Context, objectKey string) (string, error) {
	return "http://storage.local/" + objectKey, nil
}

type apiTestServerOptions struct {
	demoMode bool
	storage  service.StorageService
}

func newAPITestServer(t *testing.T) (string, *http.Client, *gorm.DB, func()) {
	return newAPITestServerWithOptions(t, apiTestServerOptions{})
}

func newAPITestServerWithOptions(t *testing.T, opts apiTestServerOptions) (string, *http.Client, *gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	storage := opts.storage
	if storage == nil {
		storage = newMemStorage()
	}

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	userSvc := service.NewUserService(userRepo, profileRepo, taskRepo, storage, opts.demoMode, slog.Default())
	jwtMgr := security.NewJWTManager("iss", "aud", testJWTSecret)

	r := router.NewRouter(router.Dependencies{
		UserHandler:      handler.NewUserHandler(userSvc),
		AdminHandler:     handler.NewAdminHandler(userSvc),
		DashboardHandler: handler.NewDashboardHandler(userSvc),
		JWTManager:       jwtMgr,
		CORSOrigins:      []string{"http://localhost"},
		APIRateLimitRPM:  1000,
		EnableOTelHTTP:   false,
	})

	srv := httptest.NewServer(r)
	return srv.URL, srv.Client(), db, srv.Close
}

func createTestUser(t *testing.T, db *gorm.DB, email, firstName, lastName, status string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:        email,
		Status:       status,
		PasswordHash: "x",
		Profile: &domain.Profile{
			FirstName: firstName,
			LastName:  lastName,
		},
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create test user %s: %v", email, err)
	}
	return u
}

func authHeaders(t *testing.T, userID uint) map[string]string {
	t.Helper()
	jwtMgr := security.NewJWTManager("iss", "aud", testJWTSecret)
	token, err := jwtMgr.SignAccessToken(userID, time.Hour)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, apiEnvelope) {
	t.Helper()
	resp, raw := doRawText(t, client, method, url, body, headers)
	var env apiEnvelope
	if len(raw) > 0 {
		_ = json.Unmarshal([]byte(raw), &env)
	}
	return resp, env
}

func doRawText(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, string) {
	t.Helper()
	var payload []byte
	var err error
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp, string(raw)
}

func validProfileBody() map[string]string {
	return map[string]string{
		"first_name":    "Jane",
		"last_name":     "Doe",
		"date_of_birth": "1990-04-15",
		"gender":        "female",
	}
}

func TestProfileUpdateLifecycle(t *testing.T) {
	baseURL, client, db, closeFn := newAPITestServer(t)
	defer closeFn()

	u := createTestUser(t, db, "jane@example.com", "Old", "Name", domain.UserStatusActive)
	headers := authHeaders(t, u.ID)

	resp, env := doJSON(t, client, http.MethodGet, baseURL+"/api/v1/me", nil, headers)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("me failed: status=%d success=%v", resp.StatusCode, env.Success)
	}

	body := validProfileBody()
	body["twitter_profile"] = "https://twitter.com/janedoe"
	resp, env = doJSON(t, client, http.MethodPut, baseURL+"/api/v1/me/profile", body, headers)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("profile update failed: status=%d error=%#v", resp.StatusCode, env.Error)
	}
	var updated struct {
		Message string `json:"message"`
		User    struct {
			Profile struct {
				FirstName string `json:"first_name"`
				LastName  string `json:"last_name"`
				Gender    string `json:"gender"`
			} `json:"profile"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode update payload: %v", err)
	}
	if updated.Message != "Your profile has been updated!" {
		t.Fatalf("unexpected message: %q", updated.Message)
	}
	if updated.User.Profile.FirstName != "Jane" || updated.User.Profile.LastName != "Doe" {
		t.Fatalf("unexpected profile in response: %+v", updated.User.Profile)
	}

	var stored domain.Profile
	if err := db.Where("user_id = ?", u.ID).First(&stored).Error; err != nil {
		t.Fatalf("load stored profile: %v", err)
	}
	if stored.FirstName != "Jane" || stored.DateOfBirth != "1990-04-15" || stored.Gender != domain.GenderFemale {
		t.Fatalf("profile not persisted as expected: %+v", stored)
	}
	if stored.TwitterProfile != "https://twitter.com/janedoe" {
		t.Fatalf("twitter profile not persisted: %q", stored.TwitterProfile)
	}
}

func TestProfileUpdateValidation(t *testing.T) {
	baseURL, client, db, closeFn := newAPITestServer(t)
	defer closeFn()

	u := createTestUser(t, db, "invalid@example.com", "First", "Last", domain.UserStatusActive)
	headers := authHeaders(t, u.ID)

	cases := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"malformed date", func(b map[string]string) { b["date_of_birth"] = "15/04/1990" }},
		{"missing gender", func(b map[string]string) { delete(b, "gender") }},
		{"unknown gender", func(b map[string]string) { b["gender"] = "robot" }},
		{"short first name", func(b map[string]string) { b["first_name"] = "J" }},
		{"invalid social url", func(b map[string]string) { b["twitter_profile"] = "not-a-url" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := validProfileBody()
			tc.mutate(body)
			resp, env := doJSON(t, client, http.MethodPut, baseURL+"/api/v1/me/profile", body, headers)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			if env.Error == nil || env.Error.Code != "VALIDATION" {
				t.Fatalf("expected VALIDATION error, got %#v", env.Error)
			}
		})
	}

	var stored domain.Profile
	if err := db.Where("user_id = ?", u.ID).First(&stored).Error; err != nil {
		t.Fatalf("load stored profile: %v", err)
	}
	if stored.FirstName != "First" {
		t.Fatalf("rejected updates must not persist, got %+v", stored)
	}
}

func TestRequestsWithoutTokenAreUnauthorized(t *testing.T) {
	baseURL, client, _, closeFn := newAPITestServer(t)
	defer closeFn()

	endpoints := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/me"},
		{http.MethodPut, "/api/v1/me/profile"},
		{http.MethodDelete, "/api/v1/me/avatar"},
		{http.MethodGet, "/api/v1/users"},
		{http.MethodDelete, "/api/v1/users/1"},
		{http.MethodGet, "/api/v1/dashboard"},
	}
	for _, ep := range endpoints {
		resp, _ := doJSON(t, client, ep.method, baseURL+ep.path, nil, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", ep.method, ep.path, resp.StatusCode)
		}
	}
}

func TestRemoveAvatarWithoutUpload(t *testing.T) {
	baseURL, client, db, closeFn := newAPITestServer(t)
	defer closeFn()

	u := createTestUser(t, db, "noavatar@example.com", "No", "Avatar", domain.UserStatusActive)
	resp, env := doJSON(t, client, http.MethodDelete, baseURL+"/api/v1/me/avatar", nil, authHeaders(t, u.ID))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Message != "No avatar uploaded!" {
		t.Fatalf("unexpected error: %#v", env.Error)
	}
}
