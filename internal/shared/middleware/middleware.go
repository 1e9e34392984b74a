package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"ticketpoint/internal/shared/config"
	"ticketpoint/internal/shared/utils/response"
	"ticketpoint/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Roles carried in operator access tokens
const (
	RoleOrganizer = "ORGANIZER"
	RoleStaff     = "STAFF"
	RoleAdmin     = "ADMIN"
)

var ErrNoOperator = errors.New("operator id missing from token")

// JWTAuth creates a JWT authentication middleware
func JWTAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, "Authorization header is required", nil)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Abort(c, http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil)
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWT.Secret), nil
		})

		if err != nil || !token.Valid {
			logger.GetDefault().LogAuthFailure(c.Request.Context(), "invalid token", c.ClientIP())
			response.Abort(c, http.StatusUnauthorized, "invalid or expired token", nil)
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if tokenType, ok := claims["type"]; !ok || tokenType != "access" {
				response.Abort(c, http.StatusUnauthorized, "invalid token type", nil)
				return
			}
			c.Set("user_id", claims["user_id"])
			c.Set("user_email", claims["email"])
			c.Set("user_role", claims["role"])
		}

		c.Next()
	}
}

// RequireRoles middleware checks if user has any of the required roles
func RequireRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			response.Abort(c, http.StatusUnauthorized, "user role not found in context", nil)
			return
		}

		role, _ := userRole.(string)
		hasRole := false
		for _, r := range requiredRoles {
			if role == r {
				hasRole = true
				break
			}
		}

		if !hasRole {
			response.Abort(c, http.StatusForbidden, "Insufficient permissions", nil)
			return
		}

		c.Next()
	}
}

// OperatorID returns the authenticated operator set by JWTAuth
func OperatorID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, ErrNoOperator
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, ErrNoOperator
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, ErrNoOperator
	}
	return id, nil
}

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id and logs it once it completes.
// Errors attached with c.Error on a 5xx are logged as HTTP errors.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		reqLog := log.WithRequestID(requestID)
		if last := c.Errors.Last(); last != nil && c.Writer.Status() >= http.StatusInternalServerError {
			reqLog.LogHTTPError(c, last.Err, c.Writer.Status())
			return
		}
		reqLog.LogHTTPRequest(c, time.Since(start))
	}
}
