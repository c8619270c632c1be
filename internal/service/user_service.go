package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/taskhub/taskhub/internal/domain"
	"github.com/taskhub/taskhub/internal/observability"
	"github.com/taskhub/taskhub/internal/repository"
	"github.com/taskhub/taskhub/internal/validation"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrDemoModeRestricted guards destructive operations when the process
	// runs with demo mode enabled.
	ErrDemoModeRestricted = errors.New("operation not allowed in demo mode")

	ErrNoAvatar = errors.New("no avatar uploaded")
)

// ValidationError carries the first human-readable message from input
// validation plus per-field details.
type ValidationError struct {
	Message string
	Details map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

type UpdateProfileInput struct {
	FirstName         string `json:"first_name" validate:"required,min=2,max=100"`
	LastName          string `json:"last_name" validate:"required,min=2,max=100"`
	DateOfBirth       string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender            string `json:"gender" validate:"required,oneof=male female"`
	TwitterProfile    string `json:"twitter_profile" validate:"omitempty,url,max=255"`
	FacebookProfile   string `json:"facebook_profile" validate:"omitempty,url,max=255"`
	GooglePlusProfile string `json:"google_plus_profile" validate:"omitempty,url,max=255"`
}

// UserView is the API shape of a user with the avatar reference resolved to
// a fetchable URL.
type UserView struct {
	ID        uint         `json:"id"`
	Email     string       `json:"email"`
	Status    string       `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	Profile   *ProfileView `json:"profile,omitempty"`
}

type ProfileView struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	DateOfBirth       string `json:"date_of_birth,omitempty"`
	Gender            string `json:"gender,omitempty"`
	TwitterProfile    string `json:"twitter_profile,omitempty"`
	FacebookProfile   string `json:"facebook_profile,omitempty"`
	GooglePlusProfile string `json:"google_plus_profile,omitempty"`
	AvatarURL         string `json:"avatar_url,omitempty"`
}

type DashboardSummary struct {
	TotalUsers  int64         `json:"users_count"`
	TotalTasks  int64         `json:"tasks_count"`
	RecentTasks []domain.Task `json:"recent_incomplete_tasks"`
}

const dashboardRecentTaskLimit = 5

type UserServiceImpl struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	taskRepo    repository.TaskRepository
	storage     StorageService
	validate    *validator.Validate
	demoMode    bool
	logger      *slog.Logger
}

func NewUserService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	taskRepo repository.TaskRepository,
	storage StorageService,
	demoMode bool,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		taskRepo:    taskRepo,
		storage:     storage,
		validate:    validation.New(),
		demoMode:    demoMode,
		logger:      logger,
	}
}

func (s *UserServiceImpl) GetByID(ctx context.Context, id uint) (*UserView, error) {
	u, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return s.toView(ctx, u), nil
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, q repository.UserListQuery) (repository.PageResult[UserView], error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordUserListRequestDuration(ctx, outcome, time.Since(start)) }()
	observability.RecordUserListPageSize(ctx, q.PageSize)

	page, err := s.userRepo.ListPaged(q)
	if err != nil {
		outcome = "error"
		return repository.PageResult[UserView]{}, err
	}

	views := make([]UserView, 0, len(page.Items))
	for i := range page.Items {
		views = append(views, *s.toView(ctx, &page.Items[i]))
	}
	return repository.PageResult[UserView]{
		Items:      views,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}, nil
}

func (s *UserServiceImpl) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*UserView, error) {
	outcome := "success"
	defer func() { observability.RecordUserProfileEvent(ctx, outcome) }()

	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if err := s.validate.Struct(input); err != nil {
		outcome = "bad_request"
		return nil, &ValidationError{
			Message: validation.FirstMessage(err),
			Details: validation.Details(err),
		}
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return nil, err
	}

	profile := user.Profile
	if profile == nil {
		profile = &domain.Profile{UserID: user.ID}
	}
	profile.FirstName = input.FirstName
	profile.LastName = input.LastName
	profile.DateOfBirth = input.DateOfBirth
	profile.Gender = input.Gender
	profile.TwitterProfile = input.TwitterProfile
	profile.FacebookProfile = input.FacebookProfile
	profile.GooglePlusProfile = input.GooglePlusProfile

	if err := s.profileRepo.Upsert(profile); err != nil {
		outcome = "error"
		return nil, err
	}
	user.Profile = profile
	return s.toView(ctx, user), nil
}

// UpdateAvatar replaces the user's avatar. The new image is validated and
// stored before the previous object or the profile row is touched, so a
// rejected or failed upload leaves the existing avatar intact.
func (s *UserServiceImpl) UpdateAvatar(ctx context.Context, userID uint, file io.Reader, fileSize int64) (*UserView, error) {
	outcome := "success"
	defer func() { observability.RecordUserAvatarEvent(ctx, "upload", outcome) }()

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return nil, err
	}

	profile := user.Profile
	if profile == nil {
		profile = &domain.Profile{UserID: user.ID}
	}

	newKey, err := s.storage.UploadAvatar(ctx, file, fileSize)
	if err != nil {
		outcome = "error"
		if errors.Is(err, ErrFileTooBig) || errors.Is(err, ErrInvalidFileType) {
			outcome = "bad_request"
		}
		return nil, err
	}

	oldKey := profile.Avatar
	profile.Avatar = newKey
	if err := s.profileRepo.Upsert(profile); err != nil {
		outcome = "error"
		if derr := s.storage.DeleteAvatar(ctx, newKey); derr != nil {
			s.logger.ErrorContext(ctx, "delete orphaned avatar", "user_id", userID, "object_key", newKey, "error", derr)
		}
		return nil, err
	}

	if oldKey != "" {
		if err := s.storage.DeleteAvatar(ctx, oldKey); err != nil {
			s.logger.WarnContext(ctx, "delete previous avatar", "user_id", userID, "object_key", oldKey, "error", err)
		}
	}
	user.Profile = profile
	return s.toView(ctx, user), nil
}

func (s *UserServiceImpl) RemoveAvatar(ctx context.Context, userID uint) error {
	outcome := "success"
	defer func() { observability.RecordUserAvatarEvent(ctx, "remove", outcome) }()

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return err
	}

	if user.Profile == nil || user.Profile.Avatar == "" {
		outcome = "no_avatar"
		return ErrNoAvatar
	}

	if err := s.storage.DeleteAvatar(ctx, user.Profile.Avatar); err != nil {
		outcome = "error"
		return err
	}
	user.Profile.Avatar = ""
	if err := s.profileRepo.Upsert(user.Profile); err != nil {
		outcome = "error"
		return err
	}
	return nil
}

// DeleteUser removes a user and their profile, tasks and stored avatar.
// Refused entirely when the process runs in demo mode.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, id uint) error {
	outcome := "success"
	defer func() { observability.RecordUserDeletionEvent(ctx, outcome) }()

	if s.demoMode {
		outcome = "demo_restricted"
		return ErrDemoModeRestricted
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return err
	}

	if user.Profile != nil && user.Profile.Avatar != "" {
		if err := s.storage.DeleteAvatar(ctx, user.Profile.Avatar); err != nil {
			s.logger.WarnContext(ctx, "delete avatar for removed user", "user_id", id, "error", err)
		}
	}

	if err := s.userRepo.DeleteByID(id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return err
	}
	return nil
}

func (s *UserServiceImpl) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	outcome := "success"
	defer func() { observability.RecordDashboardRequest(ctx, outcome) }()

	users, err := s.userRepo.Count()
	if err != nil {
		outcome = "error"
		return nil, err
	}
	tasks, err := s.taskRepo.Count()
	if err != nil {
		outcome = "error"
		return nil, err
	}
	recent, err := s.taskRepo.RecentIncomplete(dashboardRecentTaskLimit)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	if recent == nil {
		recent = []domain.Task{}
	}
	return &DashboardSummary{
		TotalUsers:  users,
		TotalTasks:  tasks,
		RecentTasks: recent,
	}, nil
}

func (s *UserServiceImpl) toView(ctx context.Context, u *domain.User) *UserView {
	view := &UserView{
		ID:        u.ID,
		Email:     u.Email,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
	if u.Profile == nil {
		return view
	}
	pv := &ProfileView{
		FirstName:         u.Profile.FirstName,
		LastName:          u.Profile.LastName,
		DateOfBirth:       u.Profile.DateOfBirth,
		Gender:            u.Profile.Gender,
		TwitterProfile:    u.Profile.TwitterProfile,
		FacebookProfile:   u.Profile.FacebookProfile,
		GooglePlusProfile: u.Profile.GooglePlusProfile,
	}
	if u.Profile.Avatar != "" {
		url, err := s.storage.GenerateAvatarURL(ctx, u.Profile.Avatar)
		if err != nil {
			s.logger.WarnContext(ctx, "generate avatar url", "user_id", u.ID, "error", err)
		} else {
			pv.AvatarURL = url
		}
	}
	view.Profile = pv
	return view
}
