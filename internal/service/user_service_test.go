package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taskhub/taskhub/internal/domain"
	"github.com/taskhub/taskhub/internal/repository"
)

type fakeStorage struct {
	uploads   int
	objects   map[string]bool
	uploadErr error
	deleteErr error
	deleted   []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]bool{}}
}

func (f *fakeStorage) UploadAvatar(_ context.Context, _ io.Reader, _ int64) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads++
	key := fmt.Sprintf("avatars/fake-%d.png", f.uploads)
	f.objects[key] = true
	return key, nil
}

func (f *fakeStorage) DeleteAvatar(_ context.Context, objectKey string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if objectKey == "" {
		return nil
	}
	delete(f.objects, objectKey)
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func (f *fakeStorage) GenerateAvatarURL(_ context.Context, objectKey string) (string, error) {
	return "https://storage.test/" + objectKey, nil
}

func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Profile{}, &domain.Task{}, &domain.Todo{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newUserServiceForTest(t *testing.T, demoMode bool) (*UserServiceImpl, *gorm.DB, *fakeStorage) {
	t.Helper()
	db := newServiceTestDB(t)
	storage := newFakeStorage()
	svc := NewUserService(
		repository.NewUserRepository(db),
		repository.NewProfileRepository(db),
		repository.NewTaskRepository(db),
		storage,
		demoMode,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return svc, db, storage
}

func createTestUser(t *testing.T, db *gorm.DB, email string, profile *domain.Profile) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Status: domain.UserStatusActive, PasswordHash: "x", Profile: profile}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestUpdateProfileCreatesProfileOnFirstWrite(t *testing.T) {
	svc, db, _ := newUserServiceForTest(t, false)
	u := createTestUser(t, db, "fresh@example.com", nil)

	view, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{
		FirstName:   "Jane",
		LastName:    "Doe",
		DateOfBirth: "1990-02-28",
		Gender:      domain.GenderFemale,
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if view.Profile == nil || view.Profile.FirstName != "Jane" || view.Profile.Gender != domain.GenderFemale {
		t.Fatalf("unexpected view: %+v", view)
	}

	var count int64
	db.Model(&domain.Profile{}).Where("user_id = ?", u.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected one profile row, got %d", count)
	}
}

func TestUpdateProfileOverwritesExisting(t *testing.T) {
	svc, db, _ := newUserServiceForTest(t, false)
	u := createTestUser(t, db, "upd@example.com", &domain.Profile{FirstName: "Old", LastName: "Name"})

	view, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{
		FirstName:      "New",
		LastName:       "Name",
		DateOfBirth:    "1985-05-10",
		Gender:         domain.GenderMale,
		TwitterProfile: "https://twitter.com/new",
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if view.Profile.FirstName != "New" || view.Profile.TwitterProfile != "https://twitter.com/new" {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	svc, db, _ := newUserServiceForTest(t, false)
	u := createTestUser(t, db, "val@example.com", nil)

	cases := []struct {
		name  string
		input UpdateProfileInput
	}{
		{"missing first name", UpdateProfileInput{LastName: "Doe", DateOfBirth: "1990-02-28", Gender: domain.GenderFemale}},
		{"short first name", UpdateProfileInput{FirstName: "J", LastName: "Doe", DateOfBirth: "1990-02-28", Gender: domain.GenderFemale}},
		{"missing date of birth", UpdateProfileInput{FirstName: "Jane", LastName: "Doe", Gender: domain.GenderFemale}},
		{"invalid calendar date", UpdateProfileInput{FirstName: "Jane", LastName: "Doe", DateOfBirth: "1990-02-30", Gender: domain.GenderFemale}},
		{"bad date format", UpdateProfileInput{FirstName: "Jane", LastName: "Doe", DateOfBirth: "28-02-1990", Gender: domain.GenderFemale}},
		{"missing gender", UpdateProfileInput{FirstName: "Jane", LastName: "Doe", DateOfBirth: "1990-02-28"}},
		{"unknown gender", UpdateProfileInput{FirstName: "Jane", LastName: "Doe", DateOfBirth: "1990-02-28", Gender: "other"}},
		{"bad twitter url", UpdateProfileInput{FirstName: "Jane", LastName: "Doe", DateOfBirth: "1990-02-28", Gender: domain.GenderFemale, TwitterProfile: "not a url"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(context.Background(), u.ID, tc.input)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Message == "" {
				t.Fatal("expected non-empty validation message")
			}
		})
	}
}

func TestUpdateProfileUserNotFound(t *testing.T) {
	svc, _, _ := newUserServiceForTest(t, false)
	_, err := svc.UpdateProfile(context.Background(), 999, UpdateProfileInput{
		FirstName:   "Jane",
		LastName:    "Doe",
		DateOfBirth: "1990-02-28",
		Gender:      domain.GenderFemale,
	})
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateAvatarReplacesPrevious(t *testing.T) {
	svc, db, storage := newUserServiceForTest(t, false)
	u := createTestUser(t, db, "ava@example.com", &domain.Profile{FirstName: "A", LastName: "B", Avatar: "avatars/old.png"})
	storage.objects["avatars/old.png"] = true

	view, err := svc.UpdateAvatar(context.Background(), u.ID, strings.NewReader("img"), 3)
	if err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != "avatars/old.png" {
		t.Fatalf("expected old avatar deleted, got %v", storage.deleted)
	}
	if view.Profile.AvatarURL == "" {
		t.Fatal("expected avatar url in view")
	}

	stored := &domain.Profile{}
	if err := db.Where("user_id = ?", u.ID).First(stored).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if stored.Avatar != "avatars/fake-1.png" {
		t.Fatalf("expected new object key persisted, got %q", stored.Avatar)
	}
}

func TestUpdateAvatarRejectedUploadKeepsExisting(t *testing.T) {
	svc, db, storage := newUserServiceForTest(t, false)
	u := createTestUser(t, db, "fail@example.com", &domain.Profile{FirstName: "A", LastName: "B", Avatar: "avatars/keep.png"})
	storage.objects["avatars/keep.png"] = true

	for _, uploadErr := range []error{ErrInvalidFileType, ErrFileTooBig, ErrUploadFailed} {
		storage.uploadErr = uploadErr

		_, err := svc.UpdateAvatar(context.Background(), u.ID, strings.NewReader("img"), 3)
		if !errors.Is(err, uploadErr) {
			t.Fatalf("expected %v, got %v", uploadErr, err)
		}
		if len(storage.deleted) != 0 {
			t.Fatalf("existing avatar object deleted on failed upload: %v", storage.deleted)
		}
		if !storage.objects["avatars/keep.png"] {
			t.Fatal("expected existing avatar object to survive")
		}

		stored := &domain.Profile{}
		if err := db.Where("user_id = ?", u.ID).First(stored).Error; err != nil {
			t.Fatalf("load profile: %v", err)
		}
		if stored.Avatar != "avatars/keep.png" {
			t.Fatalf("expected avatar reference kept, got %q", stored.Avatar)
		}
	}
}

func TestRemoveAvatar(t *testing.T) {
	svc, db, storage := newUserServiceForTest(t, false)
	u := createTestUser(t, db, "rm@example.com", &domain.Profile{FirstName: "A", LastName: "B", Avatar: "avatars/gone.png"})
	storage.objects["avatars/gone.png"] = true

	if err := svc.RemoveAvatar(context.Background(), u.ID); err != nil {
		t.Fatalf("remove avatar: %v", err)
	}
	if storage.objects["avatars/gone.png"] {
		t.Fatal("expected object removed from storage")
	}

	stored := &domain.Profile{}
	if err := db.Where("user_id = ?", u.ID).First(stored).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if stored.Avatar != "" {
		t.Fatalf("expected cleared avatar reference, got %q", stored.Avatar)
	}
}

func TestRemoveAvatarWithoutAvatar(t *testing.T) {
	svc, db, _ := newUserServiceForTest(t, false)
	u := createTestUser(t, db, "none@example.com", &domain.Profile{FirstName: "A", LastName: "B"})

	if err := svc.RemoveAvatar(context.Background(), u.ID); !errors.Is(err, ErrNoAvatar) {
		t.Fatalf("expected ErrNoAvatar, got %v", err)
	}
}

func TestDeleteUserRefusedInDemoMode(t *testing.T) {
	svc, db, _ := newUserServiceForTest(t, true)
	u := createTestUser(t, db, "demo@example.com", nil)

	if err := svc.DeleteUser(context.Background(), u.ID); !errors.Is(err, ErrDemoModeRestricted) {
		t.Fatalf("expected ErrDemoModeRestricted, got %v", err)
	}

	var count int64
	db.Model(&domain.User{}).Where("id = ?", u.ID).Count(&count)
	if count != 1 {
		t.Fatal("expected user untouched in demo mode")
	}
}

func TestDeleteUserRemovesAvatarObject(t *testing.T) {
	svc, db, storage := newUserServiceForTest(t, false)
	u := createTestUser(t, db, "del@example.com", &domain.Profile{FirstName: "A", LastName: "B", Avatar: "avatars/del.png"})
	storage.objects["avatars/del.png"] = true

	if err := svc.DeleteUser(context.Background(), u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if storage.objects["avatars/del.png"] {
		t.Fatal("expected avatar object removed")
	}

	var count int64
	db.Model(&domain.User{}).Where("id = ?", u.ID).Count(&count)
	if count != 0 {
		t.Fatal("expected user row removed")
	}
}

func TestDeleteUserNotFound(t *testing.T) {
	svc, _, _ := newUserServiceForTest(t, false)
	if err := svc.DeleteUser(context.Background(), 12345); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDashboardSummary(t *testing.T) {
	svc, db, _ := newUserServiceForTest(t, false)
	createTestUser(t, db, "d1@example.com", nil)
	createTestUser(t, db, "d2@example.com", nil)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		status := domain.TaskStatusIncomplete
		if i == 0 {
			status = domain.TaskStatusDone
		}
		task := &domain.Task{UserID: 1, Title: fmt.Sprintf("t%d", i), DueDate: base.AddDate(0, 0, i), Status: status}
		if err := db.Create(task).Error; err != nil {
			t.Fatalf("create task: %v", err)
		}
	}

	sum, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if sum.TotalUsers != 2 || sum.TotalTasks != 7 {
		t.Fatalf("unexpected counts: %+v", sum)
	}
	if len(sum.RecentTasks) != 5 {
		t.Fatalf("expected 5 recent tasks, got %d", len(sum.RecentTasks))
	}
	for i := 1; i < len(sum.RecentTasks); i++ {
		if sum.RecentTasks[i-1].DueDate.Before(sum.RecentTasks[i].DueDate) {
			t.Fatal("expected recent tasks ordered by due date desc")
		}
	}
}

func TestDashboardEmptyDatabase(t *testing.T) {
	svc, _, _ := newUserServiceForTest(t, false)
	sum, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if sum.TotalUsers != 0 || sum.TotalTasks != 0 || len(sum.RecentTasks) != 0 {
		t.Fatalf("expected zero summary, got %+v", sum)
	}
	if sum.RecentTasks == nil {
		t.Fatal("expected empty slice, not nil")
	}
}

func TestListUsersResolvesAvatarURLs(t *testing.T) {
	svc, db, storage := newUserServiceForTest(t, false)
	createTestUser(t, db, "l1@example.com", &domain.Profile{FirstName: "Lia", LastName: "One", Avatar: "avatars/lia.png"})
	createTestUser(t, db, "l2@example.com", &domain.Profile{FirstName: "Leo", LastName: "Two"})
	storage.objects["avatars/lia.png"] = true

	page, err := svc.ListUsers(context.Background(), repository.UserListQuery{SortBy: "email", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Items[0].Profile.AvatarURL != "https://storage.test/avatars/lia.png" {
		t.Fatalf("expected resolved avatar url, got %q", page.Items[0].Profile.AvatarURL)
	}
	if page.Items[1].Profile.AvatarURL != "" {
		t.Fatalf("expected empty avatar url, got %q", page.Items[1].Profile.AvatarURL)
	}
}
