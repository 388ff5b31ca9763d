package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/crudlab/internal/pickup/application"
	"github.com/davicafu/crudlab/internal/pickup/domain"
	sharedHttp "github.com/davicafu/crudlab/internal/shared/infra/http"
	"github.com/davicafu/crudlab/pkg/utils"
)

// PickupHandler exposes the pickup facade over HTTP.
type PickupHandler struct {
	facade *application.PickupFacade
}

func NewPickupHandler(facade *application.PickupFacade) *PickupHandler {
	return &PickupHandler{facade: facade}
}

// ---------------- Handlers ----------------

// CreatePickup endpoint POST /pickups
func (h *PickupHandler) CreatePickup(c *gin.Context) {
	var req domain.PickupCreate
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

// GetPickup endpoint GET /pickups/:id
func (h *PickupHandler) GetPickup(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "invalid pickup id")
		return
	}

	dto, err := h.facade.Get(c.Request.Context(), id)
	if err != nil {
		sharedHttp.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// ListPickups endpoint GET /pickups
//
// Join-qualified criteria work here too, e.g.
// ?user___email=ada@example.org attaches the joined owner.
func (h *PickupHandler) ListPickups(c *gin.Context) {
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

// UpdatePickup endpoint PATCH /pickups/:id
func (h *PickupHandler) UpdatePickup(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "invalid pickup id")
		return
	}

	var req domain.PickupUpdate
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

// DeletePickup endpoint DELETE /pickups/:id
func (h *PickupHandler) DeletePickup(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "invalid pickup id")
		return
	}

	dto, err := h.facade.Delete(c.Request.Context(), id)
	if err != nil {
		sharedHttp.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}
