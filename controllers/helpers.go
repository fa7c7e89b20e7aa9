package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/pizzeria-app/middlewares"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

// bindJSON decodes the body into req and answers 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.RespondAppError(c, utils.NewValidationError("invalid request body: %s", err.Error()))
		return false
	}
	return true
}

// mustCaller returns the authenticated caller or answers 401.
func mustCaller(c *gin.Context) (services.Caller, bool) {
	caller, ok := middlewares.CallerFromContext(c)
	if !ok {
		utils.RespondAppError(c, utils.NewUnauthenticated("authentication required"))
	}
	return caller, ok
}
