// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mverner/folio/internal/logging"
	"github.com/mverner/folio/internal/metrics"
	"github.com/mverner/folio/internal/models"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// Auth modes. ModeNone skips token checks entirely and runs every
// request as a local admin; config validation rejects it outside
// development.
const (
	ModeJWT  = "jwt"
	ModeNone = "none"
)

// roleRank orders roles for RequireRole checks. Higher ranks satisfy
// requirements for lower ones.
var roleRank = map[string]int{
	models.RoleStudent: 1,
	models.RolePlus:    2,
	models.RolePro:     3,
	models.RoleAdmin:   4,
}

// Middleware authenticates requests with bearer tokens.
type Middleware struct {
	jwtManager *JWTManager
	authMode   string
	onReject   func(w http.ResponseWriter, status int, code, message string)
}

// NewMiddleware creates the auth middleware. onReject renders error
// responses; the api package supplies its standard error writer.
func NewMiddleware(jwtManager *JWTManager, authMode string, onReject func(w http.ResponseWriter, status int, code, message string)) *Middleware {
	if authMode == "" {
		authMode = ModeJWT
	}
	return &Middleware{jwtManager: jwtManager, authMode: authMode, onReject: onReject}
}

// Authenticate requires a valid Bearer token and stores the claims in
// the request context. In none mode every request runs as a local
// admin so personalized endpoints stay usable in development.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == ModeNone {
			claims := devClaims()
			ctx := ContextWithClaims(r.Context(), claims)
			ctx = logging.ContextWithUserID(ctx, claims.UserID())
			next(w, r.WithContext(ctx))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			metrics.RecordAuthFailure("missing")
			m.reject(w, "Authentication required")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			metrics.RecordAuthFailure("malformed")
			m.reject(w, "Authorization header must use Bearer scheme")
			return
		}

		claims, err := m.jwtManager.ValidateToken(tokenString)
		if err != nil {
			metrics.RecordAuthFailure("invalid")
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			m.reject(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		ctx = logging.ContextWithUserID(ctx, claims.UserID())
		next(w, r.WithContext(ctx))
	}
}

// RequireRole gates a handler behind a minimum role. Must run after
// Authenticate.
func (m *Middleware) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	required := roleRank[role]
	return func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			m.reject(w, "Authentication required")
			return
		}
		if roleRank[claims.Role] < required {
			m.onReject(w, http.StatusForbidden, "AUTHENTICATION_ERROR", "Insufficient role")
			return
		}
		next(w, r)
	}
}

// devClaims is the identity used for every request in none mode.
func devClaims() *Claims {
	return &Claims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "dev",
		},
	}
}

func (m *Middleware) reject(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="folio"`)
	m.onReject(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", message)
}

// ClaimsFromContext returns the authenticated claims, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(claimsKey).(*Claims); ok {
		return claims
	}
	return nil
}

// UserIDFromContext returns the authenticated user's ID, or "".
func UserIDFromContext(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.UserID()
	}
	return ""
}

// ContextWithClaims stores claims in ctx. Exported for handler tests.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
