package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bcastudynepal/portal/internal/services"
	appErrors "github.com/bcastudynepal/portal/pkg/errors"
	"github.com/bcastudynepal/portal/pkg/response"
)

// TodoHandler exposes per-user task lists. All routes require authentication
// and operate on the caller's own todos.
type TodoHandler struct {
	todos *services.TodoService
}

func NewTodoHandler(todos *services.TodoService) *TodoHandler {
	return &TodoHandler{todos: todos}
}

func (h *TodoHandler) ownerID(c *gin.Context) (string, bool) {
	userID := c.GetString("userID")
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

// GET /api/todos
func (h *TodoHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	opts := services.ListTodosOptions{
		Priority: c.Query("priority"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if raw := c.Query("completed"); raw == "true" || raw == "false" {
		completed := raw == "true"
		opts.Completed = &completed
	}

	todos, err := h.todos.List(requestContext(c), ownerID, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, todos)
}

// GET /api/todos/:id
func (h *TodoHandler) Get(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	todo, err := h.todos.Get(requestContext(c), ownerID, c.Param("id"))
	if err != nil {
		response.Error(c, mapTodoError(err))
		return
	}
	response.Success(c, http.StatusOK, todo)
}

type todoRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
	Category    string     `json:"category" validate:"omitempty,max=100"`
}

// POST /api/todos
func (h *TodoHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	var req todoRequest
	if !bindAndValidate(c, &req) {
		return
	}

	todo, err := h.todos.Create(requestContext(c), ownerID, services.CreateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Category:    req.Category,
	})
	if err != nil {
		response.Error(c, mapTodoError(err))
		return
	}
	response.Success(c, http.StatusCreated, todo)
}

type todoUpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
	Category    *string    `json:"category" validate:"omitempty,max=100"`
	IsCompleted *bool      `json:"is_completed"`
}

// PATCH /api/todos/:id
func (h *TodoHandler) Update(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	var req todoUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	todo, err := h.todos.Update(requestContext(c), ownerID, c.Param("id"), services.UpdateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Category:    req.Category,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		response.Error(c, mapTodoError(err))
		return
	}
	response.Success(c, http.StatusOK, todo)
}

// POST /api/todos/:id/toggle
func (h *TodoHandler) ToggleComplete(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	done, err := h.todos.ToggleComplete(requestContext(c), ownerID, c.Param("id"))
	if err != nil {
		response.Error(c, mapTodoError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"is_completed": done})
}

// DELETE /api/todos/:id
func (h *TodoHandler) Delete(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	if err := h.todos.Delete(requestContext(c), ownerID, c.Param("id")); err != nil {
		response.Error(c, mapTodoError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type subtaskRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// POST /api/todos/:id/subtasks
func (h *TodoHandler) AddSubTask(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	var req subtaskRequest
	if !bindAndValidate(c, &req) {
		return
	}

	subtask, err := h.todos.AddSubTask(requestContext(c), ownerID, c.Param("id"), req.Title)
	if err != nil {
		response.Error(c, mapTodoError(err))
		return
	}
	response.Success(c, http.StatusCreated, subtask)
}

// POST /api/todos/:id/subtasks/:subtaskId/toggle
func (h *TodoHandler) ToggleSubTask(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	done, err := h.todos.ToggleSubTask(requestContext(c), ownerID, c.Param("id"), c.Param("subtaskId"))
	if err != nil {
		response.Error(c, mapTodoError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"is_completed": done})
}

// DELETE /api/todos/:id/subtasks/:subtaskId
func (h *TodoHandler) DeleteSubTask(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	if err := h.todos.DeleteSubTask(requestContext(c), ownerID, c.Param("id"), c.Param("subtaskId")); err != nil {
		response.Error(c, mapTodoError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// POST /api/todos/:id/comments
func (h *TodoHandler) AddComment(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	var req commentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	comment, err := h.todos.AddComment(requestContext(c), ownerID, c.Param("id"), req.Content)
	if err != nil {
		response.Error(c, mapTodoError(err))
		return
	}
	response.Success(c, http.StatusCreated, comment)
}

func mapTodoError(err error) error {
	switch {
	case errors.Is(err, services.ErrTodoNotFound), errors.Is(err, services.ErrSubTaskNotFound):
		return appErrors.ErrNotFound
	case errors.Is(err, services.ErrInvalidTodoPriority):
		return appErrors.NewFieldError("priority", "priority must be low, medium or high")
	default:
		return err
	}
}
