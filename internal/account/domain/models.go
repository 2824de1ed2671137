// Package domain defines landlord account types.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Account is a landlord sign-in identity.
type Account struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id,string"`
	Email        string       `gorm:"uniqueIndex:ux_accounts_email;size:255" json:"email"`
	PasswordHash string       `gorm:"size:255" json:"-"`
	FirstName    string       `gorm:"size:128" json:"firstName"`
	LastName     string       `gorm:"size:128" json:"lastName"`
	Locale       string       `gorm:"size:16" json:"locale"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (Account) TableName() string { return "accounts" }

type Service interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*Account, error)
	VerifyCredentials(ctx context.Context, email, password string) (*Account, error)
}

type Repository interface {
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Account, error)
	Insert(ctx context.Context, db *gorm.DB, account *Account) error
}
