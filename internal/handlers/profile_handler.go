package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/qrevent/qrevent/internal/helpers"
	"github.com/qrevent/qrevent/internal/middleware"
	"github.com/qrevent/qrevent/internal/models"
	"github.com/qrevent/qrevent/internal/store"
)

type UpdateProfileRequest struct {
	Name       *string `json:"nom" binding:"omitempty,min=1"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Password   *string `json:"password" binding:"omitempty,min=6"`
	Gender     *string `json:"sexe"`
	Profession *string `json:"profession"`
	Phone      *string `json:"phone"`
}

// ParticipatedEvent is an event the user is registered for, with the QR
// ticket when one was issued.
type ParticipatedEvent struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	StartDate   time.Time        `json:"start_date"`
	City        string           `json:"city"`
	Category    *models.Category `json:"category,omitempty"`
	QRCodeImage string           `json:"qr_code_image,omitempty"`
	IsValidated bool             `json:"is_validated"`
}

type ProfileHandler struct {
	store *store.Store
}

func NewProfileHandler(st *store.Store) *ProfileHandler {
	return &ProfileHandler{store: st}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	user, err := h.store.FindUser(c.Request.Context(), actor.ID)
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving user.")
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	actor, _ := middleware.CurrentActor(c)
	ctx := c.Request.Context()
	user, err := h.store.FindUser(ctx, actor.ID)
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving user.")
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = strings.ToLower(*req.Email)
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Profession != nil {
		user.Profession = *req.Profession
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			helpers.RespondInternal(c, err, "Failed to hash the password.")
			return
		}
		user.Password = string(hashedPassword)
	}

	if err := h.store.SaveUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			helpers.RespondWithError(c, http.StatusConflict, "Email already in use.")
			return
		}
		helpers.RespondInternal(c, err, "Failed to update user.")
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetMyEvents lists the events the caller organizes and the ones they are
// registered for.
func (h *ProfileHandler) GetMyEvents(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	ctx := c.Request.Context()

	organized, err := h.store.OrganizerEvents(ctx, actor.ID)
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving events.")
		return
	}
	registered, err := h.store.ParticipatedEvents(ctx, actor.ID)
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving events.")
		return
	}
	tickets, err := h.store.ParticipantTickets(ctx, actor.ID)
	if err != nil {
		helpers.RespondInternal(c, err, "Error retrieving tickets.")
		return
	}

	byEvent := make(map[uuid.UUID]models.Ticket, len(tickets))
	for _, t := range tickets {
		byEvent[t.EventID] = t
	}

	participated := make([]ParticipatedEvent, 0, len(registered))
	for _, event := range registered {
		entry := ParticipatedEvent{
			ID:        event.ID,
			Name:      event.Name,
			StartDate: event.StartDate,
			City:      event.City,
			Category:  event.Category,
		}
		if t, ok := byEvent[event.ID]; ok {
			entry.QRCodeImage = t.QRCodeImage
			entry.IsValidated = t.IsValidated
		}
		participated = append(participated, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"organized":    organized,
		"participated": participated,
	})
}
