package dto

type CreateTaskRequest struct {
	Title       string                  `json:"title" binding:"required"`
	Description string                  `json:"description"`
	Team        string                  `json:"team" binding:"required"`
	Priority    int                     `json:"priority"`
	RequesterID uint                    `json:"requester_id" binding:"required"`
	DueDate     *string                 `json:"due_date"`
	Attachments []AttachmentMetaRequest `json:"attachments" binding:"omitempty,dive"`
}

// UpdateTaskRequest fields left out of the body are not changed.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *int    `json:"priority"`
	DueDate     *string `json:"due_date"`
}

type UpdateStatusRequest struct {
	Status   string `json:"status" binding:"required"`
	UserRole string `json:"userRole"`
}
