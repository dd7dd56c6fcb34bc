package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogd/models"
	"blogd/utils"
)

// ContextUserKey is the key used to store the resolved caller in Gin context.
const ContextUserKey = "current_user"

// RequireAuth resolves the bearer token to an account and aborts with 401
// when the token is absent, invalid, expired, or its subject no longer
// exists. A deleted account is unauthenticated, not a server error.
func RequireAuth(db *gorm.DB, tokens *utils.TokenManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, status, code, msg := resolveBearer(ctx, db, tokens)
		if user == nil {
			utils.Error(ctx, status, code, msg)
			ctx.Abort()
			return
		}
		ctx.Set(ContextUserKey, user)
		ctx.Next()
	}
}

// OptionalAuth performs the same resolution but treats absence or invalidity
// as an anonymous caller. Read paths use it to personalize output without
// requiring login.
func OptionalAuth(db *gorm.DB, tokens *utils.TokenManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if user, _, _, _ := resolveBearer(ctx, db, tokens); user != nil {
			ctx.Set(ContextUserKey, user)
		}
		ctx.Next()
	}
}

// RequireAdmin is RequireAuth plus the role flag check.
func RequireAdmin(db *gorm.DB, tokens *utils.TokenManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, status, code, msg := resolveBearer(ctx, db, tokens)
		if user == nil {
			utils.Error(ctx, status, code, msg)
			ctx.Abort()
			return
		}
		if !user.IsAdmin {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin privileges required")
			ctx.Abort()
			return
		}
		ctx.Set(ContextUserKey, user)
		ctx.Next()
	}
}

// CurrentUser returns the caller resolved by the auth middlewares.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	value, exists := ctx.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

func resolveBearer(ctx *gin.Context, db *gorm.DB, tokens *utils.TokenManager) (*models.User, int, int, string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return nil, http.StatusUnauthorized, 40101, "authorization header missing"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, http.StatusUnauthorized, 40102, "invalid authorization header format"
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return nil, http.StatusUnauthorized, 40103, "empty bearer token"
	}

	claims, err := tokens.Parse(tokenString)
	if err != nil {
		return nil, http.StatusUnauthorized, 40104, "invalid or expired token"
	}

	var user models.User
	if err := db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, http.StatusUnauthorized, 40105, "account no longer exists"
		}
		return nil, http.StatusInternalServerError, 50001, "failed to resolve account"
	}

	return &user, 0, 0, ""
}
