package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qrevent/qrevent/internal/store"
)

type HealthHandler struct {
	store *store.Store
}

func NewHealthHandler(st *store.Store) *HealthHandler {
	return &HealthHandler{store: st}
}

func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.store.Ping(); err != nil {
		log.Printf("health check: database unreachable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
