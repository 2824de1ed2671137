// Package service implements JWT issuance and refresh rotation.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rentstack/rentstack/internal/config"
	"github.com/rentstack/rentstack/internal/token/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	Cfg   config.Config
	Store domain.Store
}

// Issuer signs and validates HS256 tokens. Refresh tokens are single use:
// a refresh atomically consumes the presented token's jti from the store
// before the replacement pair is written.
type Issuer struct {
	log    *zap.Logger
	secret []byte
	tokens config.TokenConfig
	store  domain.Store
	now    func() time.Time
}

func NewIssuer(p Params) *Issuer {
	return &Issuer{
		log:    p.Log.Named("token.issuer"),
		secret: []byte(p.Cfg.AuthJWTSecret),
		tokens: p.Cfg.Tokens,
		store:  p.Store,
		now:    time.Now,
	}
}

// Issue returns a fresh access/refresh pair for an identity. The refresh
// token's store TTL equals its signed validity.
func (i *Issuer) Issue(ctx context.Context, identity string) (domain.TokenPair, error) {
	access, err := i.signCategory(identity, config.TokenTypeAccess)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := i.signCategory(identity, config.TokenTypeRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if err := i.store.Save(ctx, refresh.JTI, identity, refresh.Validity()); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      access.Token,
		RefreshToken:     refresh.Token,
		AccessExpiresIn:  int64(access.Validity().Seconds()),
		RefreshExpiresIn: int64(refresh.Validity().Seconds()),
	}, nil
}

// Refresh rotates a refresh token. The presented token must carry a valid
// signature, the refresh category, and a jti still present in the store.
// Presenting the same token twice fails the second time.
func (i *Issuer) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	record, err := i.Parse(refreshToken, config.TokenTypeRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}

	identity, err := i.store.Consume(ctx, record.JTI)
	if err != nil {
		if errors.Is(err, domain.ErrTokenRevoked) {
			i.log.Warn("refresh token replayed or revoked", zap.String("jti", record.JTI))
			return domain.TokenPair{}, authErr(domain.ErrTokenRevoked)
		}
		return domain.TokenPair{}, err
	}
	if identity != record.Identity {
		return domain.TokenPair{}, authErr(domain.ErrInvalidToken)
	}

	return i.Issue(ctx, identity)
}

// Parse validates a signed token against a category and returns its record.
func (i *Issuer) Parse(tokenStr, category string) (domain.TokenRecord, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.TokenRecord{}, authErr(domain.ErrTokenExpired)
		}
		return domain.TokenRecord{}, authErr(domain.ErrInvalidToken)
	}
	if !parsed.Valid {
		return domain.TokenRecord{}, authErr(domain.ErrInvalidToken)
	}

	typ, _ := claims["typ"].(string)
	if typ != category {
		return domain.TokenRecord{}, authErr(domain.ErrWrongCategory)
	}
	sub, _ := claims["sub"].(string)
	jti, _ := claims["jti"].(string)
	if sub == "" || jti == "" {
		return domain.TokenRecord{}, authErr(domain.ErrInvalidToken)
	}

	iat, _ := claims.GetIssuedAt()
	exp, _ := claims.GetExpirationTime()
	record := domain.TokenRecord{
		Token:    tokenStr,
		JTI:      jti,
		Identity: sub,
		Category: typ,
	}
	if iat != nil {
		record.IssuedAt = iat.Time
	}
	if exp != nil {
		record.ExpiresAt = exp.Time
	}
	return record, nil
}

func (i *Issuer) signCategory(identity, category string) (domain.TokenRecord, error) {
	ttl, err := i.tokens.TTL(category)
	if err != nil {
		return domain.TokenRecord{}, err
	}
	return i.sign(identity, category, ttl)
}

func (i *Issuer) sign(identity, category string, ttl time.Duration) (domain.TokenRecord, error) {
	issuedAt := i.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)
	jti := uuid.NewString()

	claims := jwt.MapClaims{
		"sub": identity,
		"jti": jti,
		"typ": category,
		"iat": issuedAt.Unix(),
		"exp": expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return domain.TokenRecord{}, fmt.Errorf("sign %s token: %w", category, err)
	}

	return domain.TokenRecord{
		Token:     signed,
		JTI:       jti,
		Identity:  identity,
		Category:  category,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

func authErr(cause error) error {
	return fmt.Errorf("%w: %w", domain.ErrAuthentication, cause)
}
