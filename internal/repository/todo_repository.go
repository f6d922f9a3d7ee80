package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskhub/internal/model"
)

// TodoRepository defines persistence operations for todos. Every lookup and
// mutation is keyed by (owner, id); there is deliberately no way to reach a
// todo without naming its owner.
type TodoRepository interface {
	Create(ctx context.Context, todo *model.Todo) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Todo, error)
	FindByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*model.Todo, error)
	Update(ctx context.Context, todo *model.Todo) error
	DeleteByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) error
}

type todoRepository struct {
	db *gorm.DB
}

// NewTodoRepository builds a GORM-backed repository.
func NewTodoRepository(db *gorm.DB) TodoRepository {
	return &todoRepository{db: db}
}

func (r *todoRepository) Create(ctx context.Context, todo *model.Todo) error {
	return r.db.WithContext(ctx).Create(todo).Error
}

func (r *todoRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Todo, error) {
	var todos []model.Todo
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&todos).Error; err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *todoRepository) FindByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*model.Todo, error) {
	var todo model.Todo
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&todo).Error
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

// Update writes all columns, including a NULL completed_at when the pointer
// is nil.
func (r *todoRepository) Update(ctx context.Context, todo *model.Todo) error {
	return r.db.WithContext(ctx).Save(todo).Error
}

// DeleteByOwnerAndID hard-deletes the row. A miss, whether the id is unknown
// or belongs to another owner, comes back as gorm.ErrRecordNotFound.
func (r *todoRepository) DeleteByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Todo{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
