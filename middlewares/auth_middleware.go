package middlewares

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

const callerKey = "caller"

// Identifier resolves a token subject to the caller it currently represents.
type Identifier interface {
	Identify(ctx context.Context, userID string) (services.Caller, error)
}

// AuthMiddleware requires a valid bearer token. The role comes from the user
// record rather than the token claims.
func AuthMiddleware(tokens *utils.TokenManager, users Identifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondAppError(c, utils.NewUnauthenticated("authorization header missing"))
			return
		}

		scheme, tokenString, found := strings.Cut(authHeader, " ")
		tokenString = strings.TrimSpace(tokenString)
		if !found || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			utils.RespondAppError(c, utils.NewUnauthenticated("authorization header must be Bearer <token>"))
			return
		}

		claims, err := tokens.ParseToken(tokenString)
		if err != nil {
			utils.RespondAppError(c, utils.NewInvalidCredential("invalid or expired token"))
			return
		}

		caller, err := users.Identify(c.Request.Context(), claims.UserID)
		if err != nil {
			utils.RespondAppError(c, err)
			return
		}

		utils.InfoLogger.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"user_id":    caller.UserID,
			"role":       caller.Role,
		}).Debug("request authenticated")

		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFromContext returns the caller stored by AuthMiddleware.
func CallerFromContext(c *gin.Context) (services.Caller, bool) {
	value, exists := c.Get(callerKey)
	if !exists {
		return services.Caller{}, false
	}
	caller, ok := value.(services.Caller)
	return caller, ok
}
