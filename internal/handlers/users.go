package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nvoss/brewid/internal/middleware"
	"github.com/nvoss/brewid/internal/models"
	"github.com/nvoss/brewid/internal/services"
	"github.com/nvoss/brewid/pkg/errors"
	"github.com/nvoss/brewid/pkg/response"
)

// UserHandler exposes the current-user endpoint and the admin account CRUD.
type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, users, &response.Meta{Total: len(users)})
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.Error(c, errors.NewBadRequest("invalid user id"))
		return
	}

	user, err := h.users.GetByID(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

type updateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	Password  *string `json:"password" validate:"omitempty,min=8"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
}

// PATCH /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.Error(c, errors.NewBadRequest("invalid user id"))
		return
	}

	var req updateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Update(requestContext(c), id, services.UpdateInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.Error(c, errors.NewBadRequest("invalid user id"))
		return
	}

	if err := h.users.Delete(requestContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// PATCH /api/users/:id/role
func (h *UserHandler) SetRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.Error(c, errors.NewBadRequest("invalid user id"))
		return
	}

	var req setRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.SetRole(requestContext(c), id, models.Role(req.Role))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
