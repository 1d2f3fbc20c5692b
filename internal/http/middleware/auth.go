// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides AdminAuth, the bearer-token gate in front of every
// admin route. Verification is delegated to an Authorizer (auth.Guard in
// production); every failure mode yields the same 401 body so callers
// cannot distinguish a wrong token from a missing one.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nailstudio/salon-backend/internal/auth"
)

// adminKey is the Gin context key set once a request is authorized.
const adminKey = "admin"

// Authorizer checks a bearer credential.
type Authorizer interface {
	Authorize(ctx context.Context, bearer string) error
}

// AdminAuth rejects requests without a valid "Authorization: Bearer <v>"
// header. Store failures while checking the credential produce a 500
// instead of a 401.
func AdminAuth(a Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c)
			return
		}
		if err := a.Authorize(c.Request.Context(), bearer); err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				unauthorized(c)
				return
			}
			LoggerFrom(c).Error().Err(err).Msg("authorize admin")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": GetRequestID(c),
				"code":       "internal_error",
				"message":    "internal server error",
			})
			return
		}
		c.Set(adminKey, true)
		c.Next()
	}
}

// IsAdmin reports whether AdminAuth authorized the request.
func IsAdmin(c *gin.Context) bool {
	v, ok := c.Get(adminKey)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func bearerToken(h string) (string, bool) {
	scheme, v, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Bearer realm="admin"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": GetRequestID(c),
		"code":       "unauthorized",
		"message":    "unauthorized",
	})
}
