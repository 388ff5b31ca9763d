package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sharedHttp "github.com/davicafu/crudlab/internal/shared/infra/http"
	"github.com/davicafu/crudlab/internal/user/application"
	"github.com/davicafu/crudlab/internal/user/domain"
	"github.com/davicafu/crudlab/pkg/utils"
)

// UserHandler exposes the user facade over HTTP. It only translates:
// query strings become filter criteria, typed errors become statuses.
type UserHandler struct {
	facade *application.UserFacade
}

func NewUserHandler(facade *application.UserFacade) *UserHandler {
	return &UserHandler{facade: facade}
}

// ---------------- Handlers ----------------

// CreateUser endpoint POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req domain.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	dto, err := h.facade.Create(c.Request.Context(), &req)
	if err != nil {
		sharedHttp.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto)
}

// GetUser endpoint GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	dto, err := h.facade.Get(c.Request.Context(), id)
	if err != nil {
		sharedHttp.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// ListUsers endpoint GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	q, err := sharedHttp.ParseQuery(c.Request.URL.RawQuery)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.facade.GetPaginated(c.Request.Context(), q)
	if err != nil {
		sharedHttp.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetLatestUser endpoint GET /users/latest
func (h *UserHandler) GetLatestUser(c *gin.Context) {
	q, err := sharedHttp.ParseQuery(c.Request.URL.RawQuery)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	dto, err := h.facade.GetLatestBy(c.Request.Context(), q.Filters)
	if err != nil {
		sharedHttp.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// UpdateUser endpoint PATCH /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var req domain.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	dto, err := h.facade.Update(c.Request.Context(), id, &req)
	if err != nil {
		sharedHttp.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// DeleteUser endpoint DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	dto, err := h.facade.Delete(c.Request.Context(), id)
	if err != nil {
		sharedHttp.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// DeleteUsers endpoint DELETE /users
func (h *UserHandler) DeleteUsers(c *gin.Context) {
	q, err := sharedHttp.ParseQuery(c.Request.URL.RawQuery)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(q.Filters) == 0 {
		utils.SendError(c, http.StatusBadRequest, "refusing to delete without criteria")
		return
	}

	page, err := h.facade.DeletePaginated(c.Request.Context(), q)
	if err != nil {
		sharedHttp.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
