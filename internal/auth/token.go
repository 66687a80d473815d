// Package auth implements the collaborator that issues and verifies the
// short-lived capability tokens consumed by withdrawal authorization and the
// credit-override path. The financial core never sees a password: a cashier's
// terminal exchanges a supervisor's credentials for a scoped token here, and
// the core verifies the token alone.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"poscore/internal/fault"
	"poscore/internal/model"
)

// Scope restricts what a capability token may authorize.
type Scope string

const (
	ScopeWithdrawal     Scope = "withdrawal"
	ScopeCreditOverride Scope = "credit_override"
)

// Claims are embedded in every capability token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Scope  string `json:"scope"`
	jwt.RegisteredClaims
}

// Grant is the verified identity a token resolves to.
type Grant struct {
	UserID uuid.UUID
	Role   model.Role
}

// Verifier is the interface the financial core consumes.
type Verifier interface {
	Verify(token string, scope Scope) (*Grant, error)
}

// UserDirectory is the minimal principal lookup the issuer needs.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Service issues and verifies HS256 capability tokens.
type Service struct {
	users  UserDirectory
	secret []byte
	ttl    time.Duration
}

func NewService(users UserDirectory, secret string, ttl time.Duration) *Service {
	return &Service{users: users, secret: []byte(secret), ttl: ttl}
}

// Issue exchanges an elevated principal's credentials for a scoped,
// short-lived token. PermissionDenied covers both bad credentials and
// non-elevated roles so the response does not reveal which check failed.
func (s *Service) Issue(ctx context.Context, username, password string, scope Scope) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil || user == nil || !user.Active {
		return "", fault.PermissionDenied("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", fault.PermissionDenied("invalid credentials")
	}
	if !user.Role.Elevated() {
		return "", fault.PermissionDenied("role %q may not authorize %s", user.Role, scope)
	}

	now := time.Now()
	claims := Claims{
		UserID: user.ID.String(),
		Role:   string(user.Role),
		Scope:  string(scope),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature, expiry, scope, and that the embedded role is
// still elevated.
func (s *Service) Verify(tokenStr string, scope Scope) (*Grant, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fault.PermissionDenied("invalid or expired authorization token")
	}
	if claims.Scope != string(scope) {
		return nil, fault.PermissionDenied("token not valid for %s", scope)
	}
	role := model.Role(claims.Role)
	if !role.Elevated() {
		return nil, fault.PermissionDenied("token principal lacks an elevated role")
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fault.PermissionDenied("malformed authorization token")
	}
	return &Grant{UserID: uid, Role: role}, nil
}

var _ Verifier = (*Service)(nil)
