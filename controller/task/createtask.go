package task

import (
	"net/http"

	"taskboard/controller"
	"taskboard/dto"
	"taskboard/services"

	"github.com/gin-gonic/gin"
)

func CreateTask(c *gin.Context, tasks *services.TaskService) {
	var req dto.CreateTaskRequest
	if err := controller.BindJSON(c, &req); err != nil {
		controller.RespondError(c, err)
		return
	}

	in := services.NewTask{
		Title:       req.Title,
		Description: req.Description,
		Team:        req.Team,
		Priority:    req.Priority,
		RequesterID: req.RequesterID,
	}
	if req.DueDate != nil {
		due, err := services.ParseDueDate(*req.DueDate)
		if err != nil {
			controller.RespondError(c, err)
			return
		}
		in.DueDate = due
	}
	for _, a := range req.Attachments {
		in.Attachments = append(in.Attachments, services.NewAttachment{
			UserID:   a.UserID,
			FileName: a.FileName,
			FilePath: a.FilePath,
			FileType: a.FileType,
			FileSize: a.FileSize,
		})
	}

	created, err := tasks.CreateTask(c.Request.Context(), in)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
