package task

import (
	"net/http"

	"taskboard/controller"
	"taskboard/middleware"
	"taskboard/services"

	"github.com/gin-gonic/gin"
)

func TaskController(router *gin.Engine, tasks *services.TaskService) {
	routes := router.Group("/api/tasks")
	{
		routes.GET("", func(c *gin.Context) {
			ListTasks(c, tasks)
		})
		routes.POST("", func(c *gin.Context) {
			CreateTask(c, tasks)
		})
		routes.PUT("/:id", func(c *gin.Context) {
			UpdateTask(c, tasks)
		})
		routes.PUT("/:id/status", func(c *gin.Context) {
			UpdateStatus(c, tasks)
		})
		routes.DELETE("/:id", func(c *gin.Context) {
			DeleteTask(c, tasks)
		})
	}
}

// ListTasks returns the tasks visible to the caller's role and team.
func ListTasks(c *gin.Context, tasks *services.TaskService) {
	order, err := services.ParseSortOrder(c.Query("sort"))
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	list, err := tasks.ListTasks(c.Request.Context(), middleware.CallerFrom(c), order)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
