package dto

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
	UserID  uint   `json:"user_id"`
}
