package auth

import (
	"net/http"

	"taskboard/controller"
	"taskboard/dto"
	"taskboard/services"

	"github.com/gin-gonic/gin"
)

func AuthController(router *gin.Engine, authService *services.AuthService) {
	routes := router.Group("/api")
	{
		routes.POST("/login", func(c *gin.Context) {
			Login(c, authService)
		})
	}
}

func Login(c *gin.Context, authService *services.AuthService) {
	var req dto.LoginRequest
	if err := controller.BindJSON(c, &req); err != nil {
		controller.RespondError(c, err)
		return
	}

	user, token, err := authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}
