package comment

import (
	"net/http"

	"taskboard/controller"
	"taskboard/dto"
	"taskboard/services"

	"github.com/gin-gonic/gin"
)

func CommentController(router *gin.Engine, comments *services.CommentService) {
	routes := router.Group("/api/tasks/:id/comments")
	{
		routes.GET("", func(c *gin.Context) {
			ListComments(c, comments)
		})
		routes.POST("", func(c *gin.Context) {
			CreateComment(c, comments)
		})
	}
}

func ListComments(c *gin.Context, comments *services.CommentService) {
	taskID, err := controller.ParseID(c, "id")
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	list, err := comments.ListComments(c.Request.Context(), taskID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateComment posts as the token holder, or as user_id from the body for header callers.
func CreateComment(c *gin.Context, comments *services.CommentService) {
	taskID, err := controller.ParseID(c, "id")
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	var req dto.CreateCommentRequest
	if err := controller.BindJSON(c, &req); err != nil {
		controller.RespondError(c, err)
		return
	}
	userID, err := controller.ActingUser(c, req.UserID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	created, err := comments.AddComment(c.Request.Context(), taskID, userID, req.Content)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
