package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/models"
)

var (
	// ErrTodoNotFound indicates the todo does not exist or belongs to someone else.
	ErrTodoNotFound = errors.New("todo service: todo not found")
	// ErrSubTaskNotFound indicates the subtask does not exist under the todo.
	ErrSubTaskNotFound = errors.New("todo service: subtask not found")
	// ErrInvalidTodoPriority rejects priorities outside low, medium and high.
	ErrInvalidTodoPriority = errors.New("todo service: invalid priority")
)

// TodoService manages personal task lists. Every operation is scoped to the
// owner so one user can never see or touch another's todos.
type TodoService struct {
	db *gorm.DB
}

// NewTodoService constructs a todo service.
func NewTodoService(db *gorm.DB) (*TodoService, error) {
	if db == nil {
		return nil, errors.New("todo service: db is required")
	}
	return &TodoService{db: db}, nil
}

// CreateTodoInput captures the fields accepted when adding a todo.
type CreateTodoInput struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	Category    string
}

// UpdateTodoInput describes mutable todo fields. A nil pointer means no change.
type UpdateTodoInput struct {
	Title       *string
	Description *string
	Priority    *string
	DueDate     *time.Time
	Category    *string
	IsCompleted *bool
}

// ListTodosOptions filters a user's todo listing.
type ListTodosOptions struct {
	Priority  string
	Category  string
	Completed *bool
	Search    string
}

func normaliseTodoPriority(priority string) (string, error) {
	priority = strings.ToLower(strings.TrimSpace(priority))
	switch priority {
	case "":
		return models.TodoPriorityMedium, nil
	case models.TodoPriorityLow, models.TodoPriorityMedium, models.TodoPriorityHigh:
		return priority, nil
	default:
		return "", ErrInvalidTodoPriority
	}
}

// List returns the owner's todos, incomplete first, then by due date.
func (s *TodoService) List(ctx context.Context, ownerID string, opts ListTodosOptions) ([]models.Todo, error) {
	ctx = ensuredContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Todo{}).
		Preload("SubTasks").Preload("Comments").
		Where("owner_id = ?", strings.TrimSpace(ownerID))

	if priority := strings.ToLower(strings.TrimSpace(opts.Priority)); priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if category := strings.TrimSpace(opts.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if opts.Completed != nil {
		query = query.Where("is_completed = ?", *opts.Completed)
	}
	if search := strings.TrimSpace(opts.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var todos []models.Todo
	if err := query.Order("is_completed, due_date, created_at DESC").Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("todo service: list: %w", err)
	}
	return todos, nil
}

// Get fetches one of the owner's todos with its subtasks and comments.
func (s *TodoService) Get(ctx context.Context, ownerID, id string) (*models.Todo, error) {
	ctx = ensuredContext(ctx)

	var todo models.Todo
	err := s.db.WithContext(ctx).
		Preload("SubTasks").Preload("Comments").
		Take(&todo, "id = ? AND owner_id = ?", strings.TrimSpace(id), strings.TrimSpace(ownerID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("todo service: get: %w", err)
	}
	return &todo, nil
}

// Create adds a todo for the owner.
func (s *TodoService) Create(ctx context.Context, ownerID string, input CreateTodoInput) (*models.Todo, error) {
	ctx = ensuredContext(ctx)

	ownerID = strings.TrimSpace(ownerID)
	title := strings.TrimSpace(input.Title)
	if ownerID == "" {
		return nil, errors.New("todo service: owner is required")
	}
	if title == "" {
		return nil, errors.New("todo service: title is required")
	}

	priority, err := normaliseTodoPriority(input.Priority)
	if err != nil {
		return nil, err
	}

	todo := &models.Todo{
		Title:       title,
		Description: input.Description,
		Priority:    priority,
		DueDate:     input.DueDate,
		Category:    strings.TrimSpace(input.Category),
		OwnerID:     ownerID,
	}

	if err := s.db.WithContext(ctx).Create(todo).Error; err != nil {
		return nil, fmt.Errorf("todo service: create: %w", err)
	}
	return todo, nil
}

// Update applies the supplied changes to one of the owner's todos.
func (s *TodoService) Update(ctx context.Context, ownerID, id string, input UpdateTodoInput) (*models.Todo, error) {
	ctx = ensuredContext(ctx)

	todo, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, errors.New("todo service: title is required")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Priority != nil {
		priority, err := normaliseTodoPriority(*input.Priority)
		if err != nil {
			return nil, err
		}
		updates["priority"] = priority
	}
	if input.DueDate != nil {
		updates["due_date"] = *input.DueDate
	}
	if input.Category != nil {
		updates["category"] = strings.TrimSpace(*input.Category)
	}
	if input.IsCompleted != nil {
		updates["is_completed"] = *input.IsCompleted
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(todo).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("todo service: update: %w", err)
		}
	}
	return todo, nil
}

// ToggleComplete flips a todo's completion state and reports the new state.
func (s *TodoService) ToggleComplete(ctx context.Context, ownerID, id string) (bool, error) {
	ctx = ensuredContext(ctx)

	todo, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return false, err
	}

	next := !todo.IsCompleted
	if err := s.db.WithContext(ctx).Model(todo).Update("is_completed", next).Error; err != nil {
		return false, fmt.Errorf("todo service: toggle complete: %w", err)
	}
	return next, nil
}

// Delete removes one of the owner's todos together with its subtasks and
// comments.
func (s *TodoService) Delete(ctx context.Context, ownerID, id string) error {
	ctx = ensuredContext(ctx)

	todo, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.SubTask{}, "todo_id = ?", todo.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.TodoComment{}, "todo_id = ?", todo.ID).Error; err != nil {
			return err
		}
		return tx.Delete(todo).Error
	})
	if err != nil {
		return fmt.Errorf("todo service: delete: %w", err)
	}
	return nil
}

// AddSubTask appends a checklist item to one of the owner's todos.
func (s *TodoService) AddSubTask(ctx context.Context, ownerID, todoID, title string) (*models.SubTask, error) {
	ctx = ensuredContext(ctx)

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("todo service: subtask title is required")
	}

	todo, err := s.Get(ctx, ownerID, todoID)
	if err != nil {
		return nil, err
	}

	subtask := &models.SubTask{TodoID: todo.ID, Title: title}
	if err := s.db.WithContext(ctx).Create(subtask).Error; err != nil {
		return nil, fmt.Errorf("todo service: add subtask: %w", err)
	}
	return subtask, nil
}

// ToggleSubTask flips a subtask's completion state and reports the new state.
func (s *TodoService) ToggleSubTask(ctx context.Context, ownerID, todoID, subtaskID string) (bool, error) {
	ctx = ensuredContext(ctx)

	todo, err := s.Get(ctx, ownerID, todoID)
	if err != nil {
		return false, err
	}

	var subtask models.SubTask
	err = s.db.WithContext(ctx).
		Take(&subtask, "id = ? AND todo_id = ?", strings.TrimSpace(subtaskID), todo.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, ErrSubTaskNotFound
	}
	if err != nil {
		return false, fmt.Errorf("todo service: get subtask: %w", err)
	}

	next := !subtask.IsCompleted
	if err := s.db.WithContext(ctx).Model(&subtask).Update("is_completed", next).Error; err != nil {
		return false, fmt.Errorf("todo service: toggle subtask: %w", err)
	}
	return next, nil
}

// DeleteSubTask removes a checklist item.
func (s *TodoService) DeleteSubTask(ctx context.Context, ownerID, todoID, subtaskID string) error {
	ctx = ensuredContext(ctx)

	todo, err := s.Get(ctx, ownerID, todoID)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Delete(&models.SubTask{}, "id = ? AND todo_id = ?", strings.TrimSpace(subtaskID), todo.ID)
	if result.Error != nil {
		return fmt.Errorf("todo service: delete subtask: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSubTaskNotFound
	}
	return nil
}

// AddComment records a comment on one of the owner's todos. The author's
// username is cached on the row.
func (s *TodoService) AddComment(ctx context.Context, ownerID, todoID, content string) (*models.TodoComment, error) {
	ctx = ensuredContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("todo service: comment content is required")
	}

	todo, err := s.Get(ctx, ownerID, todoID)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, "id = ?", strings.TrimSpace(ownerID)).Error; err != nil {
		return nil, fmt.Errorf("todo service: get author: %w", err)
	}

	comment := &models.TodoComment{
		TodoID:   todo.ID,
		Content:  content,
		UserID:   user.ID,
		Username: user.Username,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("todo service: add comment: %w", err)
	}
	return comment, nil
}
