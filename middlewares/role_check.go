package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/utils"
)

// Authorize lets the request through only for the given roles. It must run
// after AuthMiddleware.
func Authorize(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFromContext(c)
		if !ok {
			utils.RespondAppError(c, utils.NewUnauthenticated("unauthorized"))
			return
		}

		for _, role := range roles {
			if caller.Role == role {
				c.Next()
				return
			}
		}
		if len(roles) == 0 {
			utils.RespondAppError(c, utils.NewForbidden("access denied"))
			return
		}
		utils.RespondAppError(c, utils.NewForbidden("%s access required", roles[0]))
	}
}
