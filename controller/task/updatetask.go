package task

import (
	"net/http"

	"taskboard/controller"
	"taskboard/dto"
	"taskboard/middleware"
	"taskboard/repository"
	"taskboard/services"
	"taskboard/workflow"

	"github.com/gin-gonic/gin"
)

// UpdateTask edits title, description, priority and due date. Status has its own endpoint.
func UpdateTask(c *gin.Context, tasks *services.TaskService) {
	id, err := controller.ParseID(c, "id")
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	var req dto.UpdateTaskRequest
	if err := controller.BindJSON(c, &req); err != nil {
		controller.RespondError(c, err)
		return
	}

	changes := repository.TaskChanges{Title: req.Title, Description: req.Description}
	if req.Priority != nil {
		priority := workflow.Priority(*req.Priority)
		changes.Priority = &priority
	}
	if req.DueDate != nil {
		// An empty string clears the due date.
		due, err := services.ParseDueDate(*req.DueDate)
		if err != nil {
			controller.RespondError(c, err)
			return
		}
		changes.DueDate = due
		changes.DueDateSet = true
	}

	updated, err := tasks.EditTask(c.Request.Context(), middleware.CallerFrom(c), id, changes)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// UpdateStatus moves a task through the workflow. A token-authenticated
// caller's role takes precedence over the userRole field of the body.
func UpdateStatus(c *gin.Context, tasks *services.TaskService) {
	id, err := controller.ParseID(c, "id")
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	var req dto.UpdateStatusRequest
	if err := controller.BindJSON(c, &req); err != nil {
		controller.RespondError(c, err)
		return
	}

	caller := middleware.CallerFrom(c)
	role := caller.Role
	if !caller.Verified && req.UserRole != "" {
		role, _ = workflow.ParseRole(req.UserRole)
	}

	updated, err := tasks.ChangeStatus(c.Request.Context(), role, id, req.Status)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
