package middleware

import (
	"errors"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/staff"
	"github.com/shoppos/backend/internal/infrastructure/auth"
	"github.com/shoppos/backend/internal/infrastructure/logger"
	"github.com/shoppos/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys set by JWTAuth
const (
	JWTClaimsKey = "jwt_claims"
	JWTUserIDKey = "jwt_user_id"
	JWTShopIDKey = "jwt_shop_id"
	JWTRoleKey   = "jwt_role"

	bearerPrefix = "Bearer "
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// JWTAuth authenticates the bearer token and stores its claims
func JWTAuth(validator TokenValidator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, bearerPrefix)
		if !ok || token == "" {
			abort(c, shared.CodeUnauthorized, "Missing bearer token")
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			log.Debug("token rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			if errors.Is(err, auth.ErrExpiredToken) {
				abort(c, dto.ErrCodeTokenExpired, "Token has expired")
			} else {
				abort(c, dto.ErrCodeTokenInvalid, "Invalid token")
			}
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTShopIDKey, claims.ShopID)
		c.Set(JWTRoleKey, claims.StaffRole())

		ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ShopScope rejects requests whose :shop_id differs from the token's shop
// and tags the request logger with the shop
func ShopScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		param := c.Param("shop_id")
		shopID, err := uuid.Parse(param)
		if err != nil {
			abort(c, dto.ErrCodeBadRequest, "Invalid shop ID")
			return
		}
		if shopID.String() != c.GetString(JWTShopIDKey) {
			abort(c, shared.CodeForbidden, "Token is not valid for this shop")
			return
		}
		c.Request = c.Request.WithContext(logger.WithShopID(c.Request.Context(), shopID.String()))
		c.Next()
	}
}

// RequireRole allows only the given roles
func RequireRole(roles ...staff.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, GetRole(c)) {
			abort(c, shared.CodeForbidden, "Insufficient role")
			return
		}
		c.Next()
	}
}

// GetClaims returns the token claims, or nil
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetUserID returns the authenticated user
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.GetString(JWTUserIDKey))
}

// GetRole returns the authenticated user's role
func GetRole(c *gin.Context) staff.Role {
	if v, ok := c.Get(JWTRoleKey); ok {
		if role, ok := v.(staff.Role); ok {
			return role
		}
	}
	return ""
}
