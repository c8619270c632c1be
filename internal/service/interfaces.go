package service

import (
	"context"
	"io"

	"github.com/taskhub/taskhub/internal/repository"
)

type UserServiceInterface interface {
	GetByID(ctx context.Context, id uint) (*UserView, error)
	ListUsers(ctx context.Context, q repository.UserListQuery) (repository.PageResult[UserView], error)
	UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*UserView, error)
	UpdateAvatar(ctx context.Context, userID uint, file io.Reader, fileSize int64) (*UserView, error)
	RemoveAvatar(ctx context.Context, userID uint) error
	DeleteUser(ctx context.Context, id uint) error
	Dashboard(ctx context.Context) (*DashboardSummary, error)
}

var _ UserServiceInterface = (*UserServiceImpl)(nil)
