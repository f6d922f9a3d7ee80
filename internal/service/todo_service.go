package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "taskhub/internal/errors"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

// TodoUpdate carries the fields a caller may change on a todo. Nil means
// leave the field as is. This is the full allow-list; anything else in a
// request body is dropped at the boundary.
type TodoUpdate struct {
	Text      *string
	Completed *bool
}

// TodoService exposes owner-scoped todo operations. Every method takes the
// authenticated owner's id and never returns or touches another user's
// todos; a todo that exists under a different owner is reported exactly like
// one that does not exist.
type TodoService interface {
	Create(ctx context.Context, ownerID uuid.UUID, text string) (*model.Todo, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]model.Todo, error)
	Get(ctx context.Context, ownerID uuid.UUID, todoID string) (*model.Todo, error)
	Update(ctx context.Context, ownerID uuid.UUID, todoID string, update TodoUpdate) (*model.Todo, error)
	Delete(ctx context.Context, ownerID uuid.UUID, todoID string) (*model.Todo, error)
}

type todoService struct {
	todos repository.TodoRepository
}

// NewTodoService builds a TodoService over the repository.
func NewTodoService(todos repository.TodoRepository) TodoService {
	return &todoService{todos: todos}
}

func (s *todoService) Create(ctx context.Context, ownerID uuid.UUID, text string) (*model.Todo, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.ErrEmptyText
	}

	todo := &model.Todo{
		Text:    text,
		OwnerID: ownerID,
	}
	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	return todo, nil
}

func (s *todoService) List(ctx context.Context, ownerID uuid.UUID) ([]model.Todo, error) {
	return s.todos.ListByOwner(ctx, ownerID)
}

func (s *todoService) Get(ctx context.Context, ownerID uuid.UUID, todoID string) (*model.Todo, error) {
	id, err := parseTodoID(todoID)
	if err != nil {
		return nil, apperrors.ErrTodoNotFound
	}
	return s.find(ctx, ownerID, id)
}

// Update applies the allow-listed fields and maintains the completed_at
// invariant: non-null exactly while completed is true.
func (s *todoService) Update(ctx context.Context, ownerID uuid.UUID, todoID string, update TodoUpdate) (*model.Todo, error) {
	id, err := parseTodoID(todoID)
	if err != nil {
		return nil, apperrors.ErrTodoNotFound
	}

	todo, err := s.find(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if update.Text != nil {
		if strings.TrimSpace(*update.Text) == "" {
			return nil, apperrors.ErrEmptyText
		}
		todo.Text = *update.Text
	}
	if update.Completed != nil {
		todo.Completed = *update.Completed
		if todo.Completed {
			now := time.Now().UnixMilli()
			todo.CompletedAt = &now
		} else {
			todo.CompletedAt = nil
		}
	}

	if err := s.todos.Update(ctx, todo); err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return todo, nil
}

// Delete removes the todo and returns its prior state.
func (s *todoService) Delete(ctx context.Context, ownerID uuid.UUID, todoID string) (*model.Todo, error) {
	id, err := parseTodoID(todoID)
	if err != nil {
		return nil, apperrors.ErrTodoNotFound
	}

	todo, err := s.find(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if err := s.todos.DeleteByOwnerAndID(ctx, ownerID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTodoNotFound
		}
		return nil, fmt.Errorf("delete todo: %w", err)
	}
	return todo, nil
}

func (s *todoService) find(ctx context.Context, ownerID, id uuid.UUID) (*model.Todo, error) {
	todo, err := s.todos.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTodoNotFound
		}
		return nil, fmt.Errorf("find todo: %w", err)
	}
	return todo, nil
}

// parseTodoID rejects malformed ids before any store access. A bad id and a
// missing todo are indistinguishable to the caller.
func parseTodoID(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}
