// Package service implements landlord account registration and sign-in checks.
package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/rentstack/rentstack/internal/account/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) *Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

var _ domain.Service = (*Service)(nil)

func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (*domain.Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
	}
	if err := s.repo.Insert(ctx, s.db, account); err != nil {
		return nil, err
	}
	s.log.Info("account registered", zap.String("account_id", account.ID.String()))
	return account, nil
}

// VerifyCredentials returns ErrInvalidCredentials for both an unknown email
// and a wrong password so callers cannot enumerate registered addresses.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*domain.Account, error) {
	account, err := s.repo.FindByEmail(ctx, s.db, normalizeEmail(email))
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
