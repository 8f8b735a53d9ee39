package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qrevent/qrevent/internal/helpers"
	"github.com/qrevent/qrevent/internal/middleware"
	"github.com/qrevent/qrevent/internal/store"
)

type DashboardHandler struct {
	store *store.Store
}

func NewDashboardHandler(st *store.Store) *DashboardHandler {
	return &DashboardHandler{store: st}
}

func (h *DashboardHandler) GetOrganizerStats(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	stats, err := h.store.OrganizerStats(c.Request.Context(), actor.ID)
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving statistics.")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *DashboardHandler) GetAdminStats(c *gin.Context) {
	stats, err := h.store.AdminStats(c.Request.Context())
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving statistics.")
		return
	}
	c.JSON(http.StatusOK, stats)
}
