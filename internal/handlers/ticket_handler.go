package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qrevent/qrevent/internal/helpers"
	"github.com/qrevent/qrevent/internal/middleware"
	"github.com/qrevent/qrevent/internal/service"
	"github.com/qrevent/qrevent/internal/store"
	"github.com/qrevent/qrevent/internal/ticketing"
)

type AddParticipantRequest struct {
	ParticipantID string `json:"participantId" binding:"required,uuid"`
}

type ValidateQRRequest struct {
	QRCodeToken string `json:"qrCodeToken" binding:"required"`
	EventName   string `json:"eventName" binding:"required"`
}

// TicketHandler serves registration, ticket issuance and check-in.
type TicketHandler struct {
	store   *store.Store
	service *service.Service
}

func NewTicketHandler(st *store.Store, svc *service.Service) *TicketHandler {
	return &TicketHandler{store: st, service: svc}
}

func (h *TicketHandler) RegisterToEvent(c *gin.Context) {
	eventID, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	form, ok := bindOverrides(c)
	if !ok {
		return
	}

	actor, _ := middleware.CurrentActor(c)
	result, err := h.service.Register(c.Request.Context(), actor, eventID, form)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	if result.Ticket != nil {
		c.JSON(http.StatusCreated, gin.H{
			"message": "Registration successful with QR code.",
			"qr_code": result.Ticket.QRCodeImage,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful."})
}

func (h *TicketHandler) UnregisterFromEvent(c *gin.Context) {
	eventID, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	actor, _ := middleware.CurrentActor(c)
	if err := h.service.Unregister(c.Request.Context(), actor, eventID); err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// IssueTicket returns the caller's ticket, issuing it if registration
// completed without one.
func (h *TicketHandler) IssueTicket(c *gin.Context) {
	eventID, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	form, ok := bindOverrides(c)
	if !ok {
		return
	}

	actor, _ := middleware.CurrentActor(c)
	ticket, err := h.service.IssueTicket(c.Request.Context(), actor, eventID, form)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// GetTicketQR serves the caller's ticket as a PNG image.
func (h *TicketHandler) GetTicketQR(c *gin.Context) {
	eventID, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	actor, _ := middleware.CurrentActor(c)
	ticket, err := h.store.FindTicket(c.Request.Context(), eventID, actor.ID)
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
		return
	}
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving ticket.")
		return
	}

	png, err := ticketing.DecodeDataURI(ticket.QRCodeImage)
	if err != nil {
		helpers.RespondInternal(c, err, "Failed to read QR code.")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *TicketHandler) AddParticipant(c *gin.Context) {
	eventID, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	var req AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid participant ID.")
		return
	}

	ctx := c.Request.Context()
	actor, _ := middleware.CurrentActor(c)
	if _, err := h.service.AddParticipant(ctx, actor, eventID, uuid.MustParse(req.ParticipantID)); err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	event, err := h.store.GetEventDetail(ctx, eventID)
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving event.")
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *TicketHandler) RemoveParticipant(c *gin.Context) {
	eventID, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}
	participantID, err := helpers.ParseUUIDParam(c, "participantId")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid participant ID.")
		return
	}

	actor, _ := middleware.CurrentActor(c)
	if err := h.service.RemoveParticipant(c.Request.Context(), actor, eventID, participantID); err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTickets returns the check-in list of an event.
func (h *TicketHandler) ListTickets(c *gin.Context) {
	eventID, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	ctx := c.Request.Context()
	event, err := h.store.FindEvent(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithServiceError(c, service.ErrEventNotFound)
		return
	}
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving event.")
		return
	}
	actor, _ := middleware.CurrentActor(c)
	if !event.IsManagedBy(actor.ID, actor.Role) {
		helpers.RespondWithServiceError(c, service.ErrForbidden)
		return
	}

	tickets, err := h.store.ListEventTickets(ctx, eventID)
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving tickets.")
		return
	}

	validated := 0
	for _, t := range tickets {
		if t.IsValidated {
			validated++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"tickets":   tickets,
		"total":     len(tickets),
		"validated": validated,
	})
}

func (h *TicketHandler) ValidateQRCode(c *gin.Context) {
	var req ValidateQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "QR code token and event name are required.")
		return
	}

	actor, _ := middleware.CurrentActor(c)
	result, err := h.service.Validate(c.Request.Context(), actor, req.QRCodeToken, req.EventName)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "QR code validated successfully.",
		"participant":  result.Participant,
		"event":        result.Event,
		"validated_at": result.ValidatedAt,
	})
}

// bindOverrides reads the optional ticket details from the request body.
func bindOverrides(c *gin.Context) (service.FormOverrides, bool) {
	var form service.FormOverrides
	if c.Request.ContentLength == 0 {
		return form, true
	}
	if err := c.ShouldBindJSON(&form); err != nil && !errors.Is(err, io.EOF) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return form, false
	}
	return form, true
}
