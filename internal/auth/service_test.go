package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoginAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := NewService("admin@gallery.example", "hunter2", "super-secret", time.Hour)

	token, err := svc.Login("admin@gallery.example", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	require.Equal(t, AdminRole, claims.Role)
	require.Equal(t, "admin@gallery.example", claims.Email)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc := NewService("admin@gallery.example", "hunter2", "super-secret", time.Hour)

	_, err := svc.Login("admin@gallery.example", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_WrongEmail(t *testing.T) {
	t.Parallel()

	svc := NewService("admin@gallery.example", "hunter2", "super-secret", time.Hour)

	_, err := svc.Login("intruder@gallery.example", "hunter2")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_MissingConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name            string
		email, pw, secr string
	}{
		{"no email", "", "hunter2", "super-secret"},
		{"no password", "admin@gallery.example", "", "super-secret"},
		{"no secret", "admin@gallery.example", "hunter2", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(tc.email, tc.pw, tc.secr, time.Hour)
			_, err := svc.Login("admin@gallery.example", "hunter2")
			require.ErrorIs(t, err, ErrNotConfigured)
		})
	}
}

func TestLogin_BcryptHashedPassword(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewService("admin@gallery.example", string(hash), "super-secret", time.Hour)

	_, err = svc.Login("admin@gallery.example", "hunter2")
	require.NoError(t, err)

	_, err = svc.Login("admin@gallery.example", string(hash))
	require.ErrorIs(t, err, ErrInvalidCredentials, "the hash itself must not pass as the password")
}

func TestVerify_ExpiredToken(t *testing.T) {
	t.Parallel()

	secret := "super-secret"
	claims := &Claims{
		Role:  AdminRole,
		Email: "admin@gallery.example",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	svc := NewService("admin@gallery.example", "hunter2", secret, time.Hour)
	_, err = svc.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewService("admin@gallery.example", "hunter2", "right-secret", time.Hour)
	token, err := issuer.Login("admin@gallery.example", "hunter2")
	require.NoError(t, err)

	verifier := NewService("admin@gallery.example", "hunter2", "wrong-secret", time.Hour)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	svc := NewService("admin@gallery.example", "hunter2", "super-secret", time.Hour)
	_, err := svc.Verify("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}
