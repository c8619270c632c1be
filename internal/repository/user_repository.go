package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/taskhub/taskhub/internal/domain"
	"github.com/taskhub/taskhub/internal/observability"
)

var ErrUserNotFound = errors.New("user not found")

// UserListQuery carries the filter and sort parameters for the paged user
// listing. Empty filter fields are skipped; empty SortBy falls back to
// created_at descending.
type UserListQuery struct {
	PageRequest

	FirstName string
	LastName  string
	Email     string
	Status    string

	SortBy    string
	SortOrder string
}

type UserRepository interface {
	FindByID(id uint) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	Create(user *domain.User) error
	Update(user *domain.User) error
	ListPaged(q UserListQuery) (PageResult[domain.User], error)
	DeleteByID(id uint) error
	Count() (int64, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

// userSortColumns is the ORDER BY allow-list. Anything outside it is ignored
// so client input never reaches the SQL string.
var userSortColumns = map[string]string{
	"first_name": "profiles.first_name",
	"last_name":  "profiles.last_name",
	"email":      "users.email",
	"status":     "users.status",
	"created_at": "users.created_at",
}

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	if err := r.db.Preload("Profile").First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.Preload("Profile").Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "success")
	return &u, nil
}

func (r *GormUserRepository) Create(user *domain.User) error {
	if err := r.db.Create(user).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "create", "success")
	return nil
}

func (r *GormUserRepository) Update(user *domain.User) error {
	if err := r.db.Save(user).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "update", "success")
	return nil
}

func (r *GormUserRepository) ListPaged(q UserListQuery) (PageResult[domain.User], error) {
	normalized := normalizePageRequest(q.PageRequest)
	result := PageResult[domain.User]{
		Page:     normalized.Page,
		PageSize: normalized.PageSize,
	}

	base := r.db.Model(&domain.User{}).
		Joins("LEFT JOIN profiles ON profiles.user_id = users.id")

	// ESCAPE is spelled out because SQLite has no default escape character.
	if q.FirstName != "" {
		base = base.Where(`LOWER(profiles.first_name) LIKE ? ESCAPE '\'`, substringPattern(q.FirstName))
	}
	if q.LastName != "" {
		base = base.Where(`LOWER(profiles.last_name) LIKE ? ESCAPE '\'`, substringPattern(q.LastName))
	}
	if q.Email != "" {
		base = base.Where(`LOWER(users.email) LIKE ? ESCAPE '\'`, substringPattern(q.Email))
	}
	if q.Status != "" {
		base = base.Where("users.status = ?", q.Status)
	}

	if err := base.Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "list_paged", "error")
		return PageResult[domain.User]{}, err
	}

	offset := (normalized.Page - 1) * normalized.PageSize
	if err := base.
		Order(userOrderClause(q.SortBy, q.SortOrder)).
		Offset(offset).
		Limit(normalized.PageSize).
		Preload("Profile").
		Find(&result.Items).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "list_paged", "error")
		return PageResult[domain.User]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, normalized.PageSize)
	observability.RecordRepositoryOperation(context.Background(), "user", "list_paged", "success")
	return result, nil
}

func (r *GormUserRepository) DeleteByID(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&domain.Profile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Task{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "delete_by_id", "not_found")
		} else {
			observability.RecordRepositoryOperation(context.Background(), "user", "delete_by_id", "error")
		}
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "delete_by_id", "success")
	return nil
}

func (r *GormUserRepository) Count() (int64, error) {
	var total int64
	if err := r.db.Model(&domain.User{}).Count(&total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "count", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "count", "success")
	return total, nil
}

func substringPattern(v string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
	return "%" + strings.ToLower(escaped) + "%"
}

func userOrderClause(sortBy, order string) string {
	col, ok := userSortColumns[sortBy]
	if !ok {
		return "users.created_at DESC"
	}
	dir := "ASC"
	if strings.EqualFold(order, "desc") {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s", col, dir)
}
