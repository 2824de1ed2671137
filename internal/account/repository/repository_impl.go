package repository

import (
	"context"
	"errors"

	"github.com/rentstack/rentstack/internal/account/domain"
	"github.com/rentstack/rentstack/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository { return &repo{} }

func (r *repo) FindByEmail(ctx context.Context, tx *gorm.DB, email string) (*domain.Account, error) {
	var account domain.Account
	err := tx.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, account *domain.Account) error {
	err := tx.WithContext(ctx).Create(account).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrEmailTaken
	}
	return err
}
