package dto

type AttachmentMetaRequest struct {
	UserID   uint   `json:"user_id"`
	FileName string `json:"file_name" binding:"required"`
	FilePath string `json:"file_path" binding:"required"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
}
