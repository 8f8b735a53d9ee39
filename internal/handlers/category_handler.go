package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qrevent/qrevent/internal/helpers"
	"github.com/qrevent/qrevent/internal/models"
	"github.com/qrevent/qrevent/internal/store"
)

type CategoryRequest struct {
	Name        string `json:"name" binding:"required,min=2"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

type CategoryHandler struct {
	store *store.Store
}

func NewCategoryHandler(st *store.Store) *CategoryHandler {
	return &CategoryHandler{store: st}
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	category := models.Category{
		Name:        req.Name,
		Emoji:       req.Emoji,
		Description: req.Description,
	}
	if err := h.store.CreateCategory(c.Request.Context(), &category); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			helpers.RespondWithError(c, http.StatusConflict, "Category already exists.")
			return
		}
		helpers.RespondInternal(c, err, "Failed to create category.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Category created successfully.",
		"category": category,
	})
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving categories.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"total":      len(categories),
	})
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	categoryID, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid category ID.")
		return
	}

	category, err := h.store.FindCategory(c.Request.Context(), categoryID)
	h.respondCategory(c, category, err)
}

func (h *CategoryHandler) GetCategoryByName(c *gin.Context) {
	category, err := h.store.FindCategoryByName(c.Request.Context(), c.Param("name"))
	h.respondCategory(c, category, err)
}

func (h *CategoryHandler) respondCategory(c *gin.Context, category *models.Category, err error) {
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusNotFound, "Category not found.")
		return
	}
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving category.")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	categoryID, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid category ID.")
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	ctx := c.Request.Context()
	category, err := h.store.FindCategory(ctx, categoryID)
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusNotFound, "Category not found.")
		return
	}
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving category.")
		return
	}

	category.Name = req.Name
	category.Emoji = req.Emoji
	category.Description = req.Description
	if err := h.store.SaveCategory(ctx, category); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			helpers.RespondWithError(c, http.StatusConflict, "Category already exists.")
			return
		}
		helpers.RespondInternal(c, err, "Failed to update category.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Category updated successfully.",
		"category": category,
	})
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	categoryID, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid category ID.")
		return
	}

	err = h.store.DeleteCategory(c.Request.Context(), categoryID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, "Category not found.")
	case errors.Is(err, store.ErrInUse):
		helpers.RespondWithError(c, http.StatusConflict, "Category is still used by events.")
	case err != nil:
		helpers.RespondInternal(c, err, "Failed to delete category.")
	default:
		c.Status(http.StatusNoContent)
	}
}
