package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token categories issued by the authenticator.
const (
	TokenTypeAccess      = "access"
	TokenTypeRefresh     = "refresh"
	TokenTypeApplication = "application"
	TokenTypeReset       = "reset"
)

const (
	maxAccessTokenTTL  = 24 * time.Hour
	maxRefreshTokenTTL = 30 * 24 * time.Hour
)

// TokenConfig holds validated token lifetimes per category.
type TokenConfig struct {
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	ApplicationTTL time.Duration
	ResetTTL       time.Duration
}

// TTL returns the lifetime for a token category.
func (t TokenConfig) TTL(category string) (time.Duration, error) {
	switch category {
	case TokenTypeAccess:
		return t.AccessTTL, nil
	case TokenTypeRefresh:
		return t.RefreshTTL, nil
	case TokenTypeApplication:
		return t.ApplicationTTL, nil
	case TokenTypeReset:
		return t.ResetTTL, nil
	default:
		return 0, fmt.Errorf("unknown token category %q", category)
	}
}

func loadTokenConfig(environment string) (TokenConfig, error) {
	accessDefault := "30s"
	refreshDefault := "12h"
	if environment == "production" {
		accessDefault = "15m"
		refreshDefault = "7d"
	}

	access, err := parseDuration(getenv("ACCESS_TOKEN_EXPIRY", accessDefault))
	if err != nil {
		return TokenConfig{}, fmt.Errorf("ACCESS_TOKEN_EXPIRY: %w", err)
	}
	refresh, err := parseDuration(getenv("REFRESH_TOKEN_EXPIRY", refreshDefault))
	if err != nil {
		return TokenConfig{}, fmt.Errorf("REFRESH_TOKEN_EXPIRY: %w", err)
	}
	application, err := parseDuration(getenv("APPLICATION_TOKEN_EXPIRY", "1h"))
	if err != nil {
		return TokenConfig{}, fmt.Errorf("APPLICATION_TOKEN_EXPIRY: %w", err)
	}
	reset, err := parseDuration(getenv("RESET_TOKEN_EXPIRY", "5m"))
	if err != nil {
		return TokenConfig{}, fmt.Errorf("RESET_TOKEN_EXPIRY: %w", err)
	}

	cfg := TokenConfig{
		AccessTTL:      access,
		RefreshTTL:     refresh,
		ApplicationTTL: application,
		ResetTTL:       reset,
	}
	if err := cfg.validate(); err != nil {
		return TokenConfig{}, err
	}
	return cfg, nil
}

func (t TokenConfig) validate() error {
	if t.AccessTTL <= 0 || t.RefreshTTL <= 0 || t.ApplicationTTL <= 0 || t.ResetTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if t.AccessTTL > maxAccessTokenTTL {
		return fmt.Errorf("access token lifetime %s exceeds maximum %s", t.AccessTTL, maxAccessTokenTTL)
	}
	if t.RefreshTTL > maxRefreshTokenTTL {
		return fmt.Errorf("refresh token lifetime %s exceeds maximum %s", t.RefreshTTL, maxRefreshTokenTTL)
	}
	return nil
}

// parseDuration extends time.ParseDuration with a "d" (day) suffix, e.g. "7d".
func parseDuration(raw string) (time.Duration, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}
