package task

import (
	"net/http"

	"taskboard/controller"
	"taskboard/middleware"
	"taskboard/services"

	"github.com/gin-gonic/gin"
)

func DeleteTask(c *gin.Context, tasks *services.TaskService) {
	id, err := controller.ParseID(c, "id")
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	if err := tasks.DeleteTask(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		controller.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
