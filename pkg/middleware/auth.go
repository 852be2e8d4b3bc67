package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yadev07/cs-eventsphere-backend/pkg/response"
)

const (
	// ContextKeyUserID is the gin context key for the authenticated user id
	ContextKeyUserID = "user_id"
	// ContextKeyRole is the gin context key for the authenticated user role
	ContextKeyRole = "role"
)

// AuthConfig holds JWT verification settings
type AuthConfig struct {
	Secret string
	Issuer string
}

// Claims are the JWT claims issued by the identity service
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies the bearer token and exposes the caller identity to
// handlers. Token issuance is the identity service's job; we only verify.
func AuthMiddleware(cfg *AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims := &Claims{}
		parserOpts := []jwt.ParserOption{
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		}
		if cfg.Issuer != "" {
			parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
		}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.Secret), nil
		}, parserOpts...)
		if err != nil || !token.Valid {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		if claims.Subject == "" {
			response.Unauthorized(c, "token has no subject")
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.Subject)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole gates a route group to the listed roles. Must run after
// AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := c.GetString(ContextKeyRole)
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}
