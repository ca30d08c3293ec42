package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"estate-listings/internal/domain"
	"estate-listings/internal/feature/account"
)

type AccountRepo struct{ db *gorm.DB }

func NewAccountRepo(db *gorm.DB) *AccountRepo { return &AccountRepo{db: db} }

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	m := account.FromDomain(a)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrDuplicateUsername
		}
		return fmt.Errorf("create account: %w", err)
	}
	a.ID, a.Role, a.CreatedAt = m.ID, domain.Role(m.Role), m.CreatedAt
	return nil
}

func (r *AccountRepo) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var m account.AccountModel
	err := r.db.WithContext(ctx).First(&m, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return m.ToDomain(), nil
}

func (r *AccountRepo) UpdateRole(ctx context.Context, username string, role domain.Role) (bool, error) {
	res := r.db.WithContext(ctx).Model(&account.AccountModel{}).
		Where("username = ?", username).
		Update("role", string(role))
	if res.Error != nil {
		return false, fmt.Errorf("update role: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// mysql reports changed rows, so an unchanged role looks like a miss.
	var n int64
	if err := r.db.WithContext(ctx).Model(&account.AccountModel{}).
		Where("username = ?", username).Count(&n).Error; err != nil {
		return false, fmt.Errorf("update role: %w", err)
	}
	return n > 0, nil
}

func (r *AccountRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&account.AccountModel{}).Count(&n).Error
	return n, err
}

// isDupKey matches unique violations across sqlite, mysql and postgres
// without relying on gorm.ErrDuplicatedKey translation.
func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
