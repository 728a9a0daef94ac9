package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"innovation-backend/internal/shared/server/middleware"
	"innovation-backend/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if caller.UserID == "" {
		respond.Error(c, http.StatusUnauthorized, "auth_required", "missing or invalid token", nil)
		return
	}

	response := gin.H{
		"userId": caller.UserID,
		"guest":  caller.Guest,
	}
	if caller.Email != "" {
		response["email"] = caller.Email
	}
	if caller.Name != "" {
		response["name"] = caller.Name
	}

	respond.JSON(c, http.StatusOK, response)
}
