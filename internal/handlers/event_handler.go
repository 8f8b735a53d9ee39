package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qrevent/qrevent/internal/helpers"
	"github.com/qrevent/qrevent/internal/middleware"
	"github.com/qrevent/qrevent/internal/models"
	"github.com/qrevent/qrevent/internal/store"
)

type CreateEventRequest struct {
	Name         string     `json:"name" binding:"required"`
	Type         string     `json:"type"`
	StartDate    time.Time  `json:"start_date" binding:"required"`
	EndDate      *time.Time `json:"end_date"`
	Time         string     `json:"time"`
	City         string     `json:"city" binding:"required"`
	Neighborhood string     `json:"neighborhood"`
	Country      string     `json:"country"`
	Description  string     `json:"description" binding:"required"`
	Price        int        `json:"price" binding:"min=0"`
	QROption     bool       `json:"qr_option"`
	CategoryID   string     `json:"category_id" binding:"required,uuid"`
}

// UpdateEventRequest carries a partial update; nil fields are left as is.
type UpdateEventRequest struct {
	Name         *string    `json:"name"`
	Type         *string    `json:"type"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Time         *string    `json:"time"`
	City         *string    `json:"city"`
	Neighborhood *string    `json:"neighborhood"`
	Country      *string    `json:"country"`
	Description  *string    `json:"description"`
	Price        *int       `json:"price" binding:"omitempty,min=0"`
	QROption     *bool      `json:"qr_option"`
	CategoryID   *string    `json:"category_id" binding:"omitempty,uuid"`
}

type EventHandler struct {
	store *store.Store
}

func NewEventHandler(st *store.Store) *EventHandler {
	return &EventHandler{store: st}
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		helpers.RespondWithError(c, http.StatusBadRequest, "End date must not be before start date.")
		return
	}

	actor, _ := middleware.CurrentActor(c)
	ctx := c.Request.Context()

	categoryID := uuid.MustParse(req.CategoryID)
	if _, err := h.store.FindCategory(ctx, categoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid category.")
			return
		}
		helpers.RespondInternal(c, err, "Failed to create event.")
		return
	}

	event := models.Event{
		Name:         req.Name,
		Type:         req.Type,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Time:         req.Time,
		City:         req.City,
		Neighborhood: req.Neighborhood,
		Country:      req.Country,
		Description:  req.Description,
		Price:        req.Price,
		QROption:     req.QROption,
		OrganizerID:  actor.ID,
		CategoryID:   categoryID,
	}
	if err := h.store.CreateEvent(ctx, &event); err != nil {
		helpers.RespondInternal(c, err, "Failed to create event.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Event created successfully.",
		"event":   event,
	})
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	event, err := h.store.GetEventDetail(c.Request.Context(), eventID)
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving event.")
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) ListEvents(c *gin.Context) {
	page, limit, err := helpers.ParsePagination(c)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.EventFilter{City: c.Query("city")}
	if raw := c.Query("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid category ID.")
			return
		}
		filter.CategoryID = &categoryID
	}

	events, total, err := h.store.ListEvents(c.Request.Context(), filter, page, limit)
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving events.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":      events,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": helpers.TotalPages(total, limit),
	})
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	event, ok := h.managedEvent(c)
	if !ok {
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	ctx := c.Request.Context()
	if req.CategoryID != nil {
		categoryID := uuid.MustParse(*req.CategoryID)
		if _, err := h.store.FindCategory(ctx, categoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				helpers.RespondWithError(c, http.StatusBadRequest, "Invalid category.")
				return
			}
			helpers.RespondInternal(c, err, "Failed to update event.")
			return
		}
		event.CategoryID = categoryID
	}
	req.apply(event)

	if event.EndDate != nil && event.EndDate.Before(event.StartDate) {
		helpers.RespondWithError(c, http.StatusBadRequest, "End date must not be before start date.")
		return
	}

	if err := h.store.SaveEvent(ctx, event); err != nil {
		helpers.RespondInternal(c, err, "Failed to update event.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event updated successfully.",
		"event":   event,
	})
}

func (req UpdateEventRequest) apply(event *models.Event) {
	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.Type != nil {
		event.Type = *req.Type
	}
	if req.StartDate != nil {
		event.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		event.EndDate = req.EndDate
	}
	if req.Time != nil {
		event.Time = *req.Time
	}
	if req.City != nil {
		event.City = *req.City
	}
	if req.Neighborhood != nil {
		event.Neighborhood = *req.Neighborhood
	}
	if req.Country != nil {
		event.Country = *req.Country
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Price != nil {
		event.Price = *req.Price
	}
	if req.QROption != nil {
		event.QROption = *req.QROption
	}
}

// DeleteEvent removes the event with its roster and tickets.
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	event, ok := h.managedEvent(c)
	if !ok {
		return
	}

	err := h.store.DeleteEvent(c.Request.Context(), event.ID)
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}
	if err != nil {
		helpers.RespondInternal(c, err, "Failed to delete event.")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *EventHandler) GetOrganizerEvents(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	events, err := h.store.OrganizerEvents(c.Request.Context(), actor.ID)
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving events.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// managedEvent loads the :id event and checks that the caller may modify
// it. It writes the error response itself and reports false on failure.
func (h *EventHandler) managedEvent(c *gin.Context) (*models.Event, bool) {
	eventID, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return nil, false
	}

	event, err := h.store.FindEvent(c.Request.Context(), eventID)
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return nil, false
	}
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving event.")
		return nil, false
	}

	actor, _ := middleware.CurrentActor(c)
	if !event.IsManagedBy(actor.ID, actor.Role) {
		helpers.RespondWithError(c, http.StatusForbidden, "You are not allowed to manage this event.")
		return nil, false
	}
	return event, true
}
