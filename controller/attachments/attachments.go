package attachments

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"taskboard/apperror"
	"taskboard/controller"
	"taskboard/dto"
	"taskboard/middleware"
	"taskboard/services"

	"github.com/gin-gonic/gin"
)

// maxUploadMemory is how much of a multipart body is kept in memory; the rest spills to temp files.
const maxUploadMemory = 32 << 20

func AttachmentsController(router *gin.Engine, attachments *services.AttachmentService) {
	routes := router.Group("/api")
	{
		routes.GET("/tasks/:id/attachments", func(c *gin.Context) {
			ListAttachments(c, attachments)
		})
		routes.POST("/tasks/:id/attachments", func(c *gin.Context) {
			CreateAttachments(c, attachments)
		})
		routes.DELETE("/attachments/:id", func(c *gin.Context) {
			DeleteAttachment(c, attachments)
		})
	}
}

func ListAttachments(c *gin.Context, attachments *services.AttachmentService) {
	taskID, err := controller.ParseID(c, "id")
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	list, err := attachments.ListAttachments(c.Request.Context(), taskID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateAttachments takes either JSON metadata for a file stored elsewhere or
// a multipart form with one or more "files" parts.
func CreateAttachments(c *gin.Context, attachments *services.AttachmentService) {
	taskID, err := controller.ParseID(c, "id")
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		uploadFiles(c, attachments, taskID)
		return
	}

	var req dto.AttachmentMetaRequest
	if err := controller.BindJSON(c, &req); err != nil {
		controller.RespondError(c, err)
		return
	}
	if req.UserID, err = controller.ActingUser(c, req.UserID); err != nil {
		controller.RespondError(c, err)
		return
	}

	created, err := attachments.AddAttachment(c.Request.Context(), taskID, services.NewAttachment{
		UserID:   req.UserID,
		FileName: req.FileName,
		FilePath: req.FilePath,
		FileType: req.FileType,
		FileSize: req.FileSize,
	})
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func uploadFiles(c *gin.Context, attachments *services.AttachmentService, taskID uint) {
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		controller.RespondError(c, apperror.Validation("invalid multipart form"))
		return
	}
	form := c.Request.MultipartForm
	defer form.RemoveAll()

	var requested uint
	if values := form.Value["user_id"]; len(values) > 0 {
		if id, err := strconv.ParseUint(values[0], 10, 64); err == nil {
			requested = uint(id)
		}
	}
	userID, err := controller.ActingUser(c, requested)
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	var uploads []services.Upload
	for _, fh := range form.File["files"] {
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		uploads = append(uploads, services.Upload{
			FileName:    fh.Filename,
			ContentType: contentType,
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	result, err := attachments.UploadAttachments(c.Request.Context(), taskID, userID, uploads)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	status := http.StatusCreated
	if len(result.Attachments) == 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

func DeleteAttachment(c *gin.Context, attachments *services.AttachmentService) {
	id, err := controller.ParseID(c, "id")
	if err != nil {
		controller.RespondError(c, err)
		return
	}

	if err := attachments.DeleteAttachment(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		controller.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
