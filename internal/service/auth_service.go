// Package service holds the clinic use cases: admissions and billing,
// vocabularies, patients, clinical records, receipts and staff login.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const (
	bcryptCost  = 12
	tokenIssuer = "eyecare-api"
)

// AuthService authenticates staff members.
type AuthService struct {
	store     port.StaffStore
	jwtSecret []byte
	accessTTL time.Duration
	logger    *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(store port.StaffStore, jwtSecret string, accessTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
		logger:    logger,
	}
}

// ============================================================
// Login: POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("staff.username", req.Username))

	staff, err := s.store.GetStaffByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("get staff: %w", err)
	}
	if staff == nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}
	if !staff.Active {
		s.logger.Warn("login: inactive staff account", zap.String("username", req.Username))
		return nil, &domain.ErrUnauthorized{Message: "account disabled"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login: failed password attempt", zap.String("username", req.Username))
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	user := domain.CurrentUser{
		ID:       staff.ID,
		Username: staff.Username,
		Name:     staff.Name,
		Role:     staff.Role,
	}
	token, err := s.signAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	s.logger.Info("staff logged in", zap.String("username", user.Username), zap.String("role", user.Role))
	return &domain.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(s.accessTTL.Seconds()),
		User:        user,
	}, nil
}

// HashPassword returns the bcrypt hash stored in staff_users.password_hash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// ============================================================
// ValidateToken: used by middleware
// ============================================================

// StaffClaims represents the custom claims in access tokens.
type StaffClaims struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// CurrentUser returns the staff member the token was issued to.
func (c *StaffClaims) CurrentUser() domain.CurrentUser {
	return domain.CurrentUser{
		ID:       c.Subject,
		Username: c.Username,
		Name:     c.Name,
		Role:     c.Role,
	}
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*StaffClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StaffClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*StaffClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "invalid token type"}
	}
	return claims, nil
}

func (s *AuthService) signAccessToken(user domain.CurrentUser) (string, error) {
	now := time.Now()
	claims := StaffClaims{
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
		Type:     "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
