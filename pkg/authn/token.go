// Package authn issues and checks the signed session tokens handed out at login.
//
// Authorization is limited to matching the user-type label carried in the token.
package authn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmehra2102/Marketplace-Booking-System/pkg/httpx"
)

var ErrInvalidToken = errors.New("invalid session token")

type Claims struct {
	Email    string
	UserType string
}

type tokenClaims struct {
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(email, userType string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (i *Issuer) Verify(raw string) (Claims, error) {
	var tc tokenClaims
	_, err := jwt.ParseWithClaims(raw, &tc, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if tc.Subject == "" || tc.UserType == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Email: tc.Subject, UserType: tc.UserType}, nil
}

type ctxKey struct{}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(Claims)
	return c, ok
}

// Require admits requests bearing a valid token whose user type is one of userTypes.
func (i *Issuer) Require(userTypes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			claims, err := i.Verify(raw)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}
			if !allowed(claims.UserType, userTypes) {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "user type "+claims.UserType+" may not call this endpoint")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func allowed(userType string, userTypes []string) bool {
	if len(userTypes) == 0 {
		return true
	}
	for _, t := range userTypes {
		if t == userType {
			return true
		}
	}
	return false
}
