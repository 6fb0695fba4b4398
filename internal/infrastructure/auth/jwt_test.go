package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/infrastructure/auth"
)

func TestJWTManagerGenerateAndVerify(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("super-secret", time.Minute)

	token, err := manager.Generate("123456789", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}

	if claims.CallerID != "123456789" || claims.Role != domain.RoleAdmin {
		t.Fatalf("expected claims to match, got %+v", claims)
	}

	if !claims.Role.IsPrivileged() {
		t.Fatal("expected admin role to be privileged")
	}
}

func TestJWTManagerGenerateRejectsUnknownRole(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)

	if _, err := manager.Generate("1", domain.Role("owner")); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTManagerVerifyErrors(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)

	expiredClaims := auth.Claims{
		CallerID: "expired",
		Role:     domain.RoleMember,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.Issuer,
			Subject:   "expired",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		},
	}

	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign expired token: %v", err)
	}

	if _, err := manager.Verify(expiredToken); err != domain.ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}

	otherManager := auth.NewJWTManager("other-secret", time.Minute)
	if _, err := otherManager.Verify(expiredToken); err == nil || err == domain.ErrExpiredToken {
		t.Fatalf("expected invalid token error, got %v", err)
	}

	if _, err := manager.Verify("not-a-token"); err == nil {
		t.Fatalf("expected failure for malformed token")
	}
}

func TestJWTManagerVerifyRejectsUnknownRoleClaim(t *testing.T) {
	t.Parallel()

	claims := auth.Claims{
		CallerID: "1",
		Role:     domain.Role("owner"),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := auth.NewJWTManager("secret", time.Minute).Verify(token); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTManagerGenerateRejectsBadCallerID(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)

	if _, err := manager.Generate("", domain.RoleMember); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTManagerVerifyRejectsForeignClaims(t *testing.T) {
	t.Parallel()

	valid := func() auth.Claims {
		return auth.Claims{
			CallerID: "7",
			Role:     domain.RoleMember,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    auth.Issuer,
				Subject:   "7",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *auth.Claims)
		method jwt.SigningMethod
	}{
		{name: "other issuer", mutate: func(c *auth.Claims) { c.Issuer = "someone-else" }, method: jwt.SigningMethodHS256},
		{name: "subject mismatch", mutate: func(c *auth.Claims) { c.Subject = "8" }, method: jwt.SigningMethodHS256},
		{name: "no expiry", mutate: func(c *auth.Claims) { c.ExpiresAt = nil }, method: jwt.SigningMethodHS256},
		{name: "other hmac", mutate: func(*auth.Claims) {}, method: jwt.SigningMethodHS512},
	}

	manager := auth.NewJWTManager("secret", time.Minute)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := valid()
			tt.mutate(&claims)

			token, err := jwt.NewWithClaims(tt.method, claims).SignedString([]byte("secret"))
			if err != nil {
				t.Fatalf("failed to sign token: %v", err)
			}

			if _, err := manager.Verify(token); err != domain.ErrInvalidToken {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
