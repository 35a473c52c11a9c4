// Package auth issues and verifies the admin bearer credential.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AdminRole is the role claim required on every mutating route.
const AdminRole = "admin"

// ErrNotConfigured is returned when the admin email, password or JWT secret
// is missing from the environment.
var ErrNotConfigured = errors.New("admin auth not configured")

// ErrInvalidCredentials is returned on any email/password mismatch. It does
// not reveal which field was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned when a token fails signature, expiry or
// structural validation.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload carried by an admin credential.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service validates the single configured admin identity and mints signed,
// time-bounded tokens. It holds no server-side state: a token dies by expiry
// or signature mismatch, never by revocation.
type Service struct {
	adminEmail    string
	adminPassword string
	secret        []byte
	ttl           time.Duration
}

// NewService creates an auth Service. ttl <= 0 falls back to 7 days.
func NewService(adminEmail, adminPassword, jwtSecret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		secret:        []byte(jwtSecret),
		ttl:           ttl,
	}
}

// Login checks the submitted credentials against the configured admin
// identity and returns a signed token on success.
func (s *Service) Login(email, password string) (string, error) {
	if s.adminEmail == "" || s.adminPassword == "" || len(s.secret) == 0 {
		return "", ErrNotConfigured
	}

	if subtle.ConstantTimeCompare([]byte(email), []byte(s.adminEmail)) != 1 {
		return "", ErrInvalidCredentials
	}
	if !passwordMatches(s.adminPassword, password) {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := &Claims{
		Role:  AdminRole,
		Email: s.adminEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates signature and expiry and returns the decoded claims.
// Role enforcement is the caller's responsibility (see middleware.RequireAdmin).
func (s *Service) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// passwordMatches compares the submitted password against the configured
// reference value: bcrypt when the value is a bcrypt hash, constant-time
// equality otherwise.
func passwordMatches(configured, submitted string) bool {
	if strings.HasPrefix(configured, "$2a$") ||
		strings.HasPrefix(configured, "$2b$") ||
		strings.HasPrefix(configured, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(submitted)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(submitted)) == 1
}
