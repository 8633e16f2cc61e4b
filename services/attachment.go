package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"taskboard/apperror"
	"taskboard/model"
	"taskboard/repository"
	"taskboard/storage"
	"taskboard/workflow"

	"go.uber.org/zap"
)

type AttachmentService struct {
	repo  repository.Repository
	blobs storage.BlobStore
	log   *zap.SugaredLogger
}

func NewAttachmentService(repo repository.Repository, blobs storage.BlobStore, log *zap.SugaredLogger) *AttachmentService {
	return &AttachmentService{repo: repo, blobs: blobs, log: log}
}

// Upload is one file of a multipart request.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type FailedUpload struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

type UploadResult struct {
	Attachments []model.Attachment `json:"attachments"`
	Failed      []FailedUpload     `json:"failed"`
}

func (s *AttachmentService) ListAttachments(ctx context.Context, taskID uint) ([]model.Attachment, error) {
	if err := taskExists(ctx, s.repo, taskID); err != nil {
		return nil, err
	}
	attachments, err := s.repo.ListAttachments(ctx, taskID)
	if err != nil {
		return nil, apperror.Dependency("failed to list attachments", err)
	}
	return attachments, nil
}

// AddAttachment records a file that is already stored elsewhere.
func (s *AttachmentService) AddAttachment(ctx context.Context, taskID uint, in NewAttachment) (*model.Attachment, error) {
	attachment := in.toModel(taskID)
	if attachment.FileName == "" || attachment.FilePath == "" {
		return nil, apperror.Validation("file_name and file_path are required")
	}
	if err := taskExists(ctx, s.repo, taskID); err != nil {
		return nil, err
	}
	if err := s.repo.CreateAttachment(ctx, &attachment); err != nil {
		return nil, apperror.Dependency("failed to save attachment", err)
	}
	return &attachment, nil
}

// UploadAttachments stores each file independently. A failed file is reported
// in the result and does not stop the others.
func (s *AttachmentService) UploadAttachments(ctx context.Context, taskID, userID uint, uploads []Upload) (*UploadResult, error) {
	if len(uploads) == 0 {
		return nil, apperror.Validation("no files uploaded")
	}
	if err := taskExists(ctx, s.repo, taskID); err != nil {
		return nil, err
	}

	result := &UploadResult{Attachments: []model.Attachment{}, Failed: []FailedUpload{}}
	for _, upload := range uploads {
		attachment, err := s.store(ctx, taskID, userID, upload)
		if err != nil {
			s.log.Warnw("attachment upload failed", "taskId", taskID, "file", upload.FileName, "error", err)
			result.Failed = append(result.Failed, FailedUpload{FileName: upload.FileName, Error: uploadErrorMessage(err)})
			continue
		}
		result.Attachments = append(result.Attachments, *attachment)
	}
	return result, nil
}

func (s *AttachmentService) store(ctx context.Context, taskID, userID uint, upload Upload) (*model.Attachment, error) {
	name := path.Base(strings.ReplaceAll(upload.FileName, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return nil, apperror.Validation("file name is required")
	}

	r, err := upload.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer r.Close()

	url, err := s.blobs.Put(ctx, storage.ObjectName(taskID, name), upload.ContentType, r)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", name, err)
	}

	attachment := &model.Attachment{
		TaskID:   taskID,
		UserID:   userID,
		FileName: name,
		FilePath: url,
		FileType: upload.ContentType,
		FileSize: upload.Size,
	}
	if err := s.repo.CreateAttachment(ctx, attachment); err != nil {
		return nil, fmt.Errorf("save %s: %w", name, err)
	}
	return attachment, nil
}

func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		return "file storage is not configured"
	case apperror.IsKind(err, apperror.KindValidation):
		return apperror.As(err).Message
	default:
		return "failed to store file"
	}
}

// DeleteAttachment is allowed for the developer, the uploader and the owning team.
func (s *AttachmentService) DeleteAttachment(ctx context.Context, caller workflow.Caller, id uint) error {
	attachment, err := s.repo.GetAttachment(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("attachment not found")
	}
	if err != nil {
		return apperror.Dependency("failed to load attachment", err)
	}

	task, err := s.repo.GetTask(ctx, attachment.TaskID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperror.Dependency("failed to load task", err)
	}

	allowed := caller.UserID != 0 && caller.UserID == attachment.UserID
	if task != nil && workflow.CanManage(caller, task.Team) {
		allowed = true
	}
	if caller.Role == workflow.RoleDeveloper {
		allowed = true
	}
	if !allowed {
		return apperror.Authorization("you don't have permission to delete this attachment")
	}

	if err := s.repo.DeleteAttachment(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("attachment not found")
		}
		return apperror.Dependency("failed to delete attachment", err)
	}
	return nil
}
