package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"taskhub/internal/auth"
	apperrors "taskhub/internal/errors"
	"taskhub/internal/service"
)

// TodoHandler handles todo endpoints. The owner is always taken from the
// identity the gate resolved, never from the request body or path.
type TodoHandler struct {
	todoService service.TodoService
}

// NewTodoHandler creates a new todo handler.
func NewTodoHandler(todoService service.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// CreateTodoRequest represents a todo creation request.
type CreateTodoRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

// UpdateTodoRequest represents a partial todo update. Absent fields are left
// unchanged; unknown fields are dropped by the binder.
type UpdateTodoRequest struct {
	Text      *string `json:"text" validate:"omitempty,min=1"`
	Completed *bool   `json:"completed"`
}

// Create godoc
// @Summary Create a todo
// @Tags todos
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param request body CreateTodoRequest true "Todo data"
// @Success 200 {object} model.Todo
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401
// @Router /todos [post]
func (h *TodoHandler) Create(c echo.Context) error {
	var req CreateTodoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	todo, err := h.todoService.Create(c.Request().Context(), auth.CurrentUser(c).ID, req.Text)
	if err != nil {
		return todoError(c, err)
	}
	return c.JSON(http.StatusOK, todo)
}

// List godoc
// @Summary List the caller's todos
// @Tags todos
// @Produce json
// @Security TokenAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401
// @Router /todos [get]
func (h *TodoHandler) List(c echo.Context) error {
	todos, err := h.todoService.List(c.Request().Context(), auth.CurrentUser(c).ID)
	if err != nil {
		return todoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"todos": todos})
}

// Get godoc
// @Summary Get one todo by id
// @Tags todos
// @Produce json
// @Security TokenAuth
// @Param id path string true "Todo ID"
// @Success 200 {object} model.Todo
// @Failure 401
// @Failure 404
// @Router /todos/{id} [get]
func (h *TodoHandler) Get(c echo.Context) error {
	todo, err := h.todoService.Get(c.Request().Context(), auth.CurrentUser(c).ID, c.Param("id"))
	if err != nil {
		return todoError(c, err)
	}
	return c.JSON(http.StatusOK, todo)
}

// Update godoc
// @Summary Update a todo
// @Tags todos
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param id path string true "Todo ID"
// @Param request body UpdateTodoRequest true "Fields to change"
// @Success 200 {object} model.Todo
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401
// @Failure 404
// @Router /todos/{id} [patch]
func (h *TodoHandler) Update(c echo.Context) error {
	var req UpdateTodoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	todo, err := h.todoService.Update(c.Request().Context(), auth.CurrentUser(c).ID, c.Param("id"), service.TodoUpdate{
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		return todoError(c, err)
	}
	return c.JSON(http.StatusOK, todo)
}

// Delete godoc
// @Summary Delete a todo
// @Description Hard-deletes the todo and returns its prior state.
// @Tags todos
// @Produce json
// @Security TokenAuth
// @Param id path string true "Todo ID"
// @Success 200 {object} model.Todo
// @Failure 401
// @Failure 404
// @Router /todos/{id} [delete]
func (h *TodoHandler) Delete(c echo.Context) error {
	todo, err := h.todoService.Delete(c.Request().Context(), auth.CurrentUser(c).ID, c.Param("id"))
	if err != nil {
		return todoError(c, err)
	}
	return c.JSON(http.StatusOK, todo)
}

// todoError keeps 404 bodies empty: a todo that is absent and one owned by
// someone else must look exactly the same to the caller.
func todoError(c echo.Context, err error) error {
	if errors.Is(err, apperrors.ErrTodoNotFound) {
		return c.NoContent(http.StatusNotFound)
	}
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
