package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/skillswap/backend/internal/hash"
	"github.com/skillswap/backend/internal/models"
	"github.com/skillswap/backend/internal/token"
)

// Paths where an expired token is still accepted, so a client can
// revoke or renew itself without logging in again.
var lenientPaths = map[string]struct{}{
	"/user/refresh": {},
	"/user/logout":  {},
}

// Identity is the outcome of the token strategy: the user plus the
// exact token they presented, which logout and refresh need.
type Identity struct {
	User  *models.User
	Token string
}

type Authenticator struct {
	DB       *gorm.DB
	Issuer   *token.Issuer
	Registry *token.Registry
}

// Local is the credential strategy: it resolves username+password to a
// user. It does not mint tokens; the login handler does that.
func (a *Authenticator) Local(ctx context.Context, account, password string) (*models.User, error) {
	var user models.User
	err := a.DB.WithContext(ctx).Preload("Skills").
		Where("username = ?", account).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !hash.Check(user.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	return &user, nil
}

// Bearer is the token strategy. A token is accepted only when its
// signature verifies AND it is still a member of the user's registry;
// expiry is forgiven on the lenient paths.
func (a *Authenticator) Bearer(ctx context.Context, authorization, path string) (*Identity, error) {
	tokenStr, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || tokenStr == "" {
		return nil, ErrMissingToken
	}

	claims, err := a.Issuer.Parse(tokenStr)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	if claims.Expired(time.Now()) {
		if _, allowed := lenientPaths[path]; !allowed {
			return nil, ErrTokenExpired
		}
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidSignature
	}

	var user models.User
	err = a.DB.WithContext(ctx).Preload("Skills").
		Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	member, err := a.Registry.Contains(ctx, user.ID, tokenStr)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrTokenRevoked
	}

	return &Identity{User: &user, Token: tokenStr}, nil
}
