package api

import (
	"context"
	"io"

	"taskboard/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	FetchTasks(ctx context.Context) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)
	CreateTask(ctx context.Context, task *domain.Task) error
	UpdateTask(ctx context.Context, task *domain.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// Attachments abstracts the on-disk store for uploaded files.
type Attachments interface {
	Save(src io.Reader, originalName string) (string, error)
	Remove(path string) error
	Exists(path string) bool
}
