package user

import (
	"net/http"

	"taskboard/controller"
	"taskboard/dto"
	"taskboard/middleware"
	"taskboard/services"

	"github.com/gin-gonic/gin"
)

func UserController(router *gin.Engine, users *services.UserService) {
	routes := router.Group("/api/users")
	{
		routes.PUT("/:id/device-token", func(c *gin.Context) {
			RegisterDeviceToken(c, users)
		})
	}
}

func RegisterDeviceToken(c *gin.Context, users *services.UserService) {
	id, err := controller.ParseID(c, "id")
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	var req dto.DeviceTokenRequest
	if err := controller.BindJSON(c, &req); err != nil {
		controller.RespondError(c, err)
		return
	}

	if err := users.RegisterDeviceToken(c.Request.Context(), middleware.CallerFrom(c), id, req.Token); err != nil {
		controller.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
