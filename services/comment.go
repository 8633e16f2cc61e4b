package services

import (
	"context"
	"errors"
	"strings"

	"taskboard/apperror"
	"taskboard/model"
	"taskboard/repository"
)

type CommentService struct {
	repo repository.Repository
}

func NewCommentService(repo repository.Repository) *CommentService {
	return &CommentService{repo: repo}
}

func (s *CommentService) ListComments(ctx context.Context, taskID uint) ([]model.Comment, error) {
	if err := taskExists(ctx, s.repo, taskID); err != nil {
		return nil, err
	}
	comments, err := s.repo.ListComments(ctx, taskID)
	if err != nil {
		return nil, apperror.Dependency("failed to list comments", err)
	}
	return comments, nil
}

func (s *CommentService) AddComment(ctx context.Context, taskID, userID uint, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.Validation("content is required")
	}
	if userID == 0 {
		return nil, apperror.Validation("user_id is required")
	}
	if err := taskExists(ctx, s.repo, taskID); err != nil {
		return nil, err
	}

	author, err := s.repo.FindUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Validation("author does not exist")
	}
	if err != nil {
		return nil, apperror.Dependency("failed to load author", err)
	}

	comment := &model.Comment{TaskID: taskID, UserID: userID, Content: content}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, apperror.Dependency("failed to create comment", err)
	}
	comment.Username = author.Username
	return comment, nil
}

func taskExists(ctx context.Context, tasks repository.Tasks, id uint) error {
	_, err := tasks.GetTask(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("task not found")
	}
	if err != nil {
		return apperror.Dependency("failed to load task", err)
	}
	return nil
}
