package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/qrevent/qrevent/internal/auth"
	"github.com/qrevent/qrevent/internal/helpers"
	"github.com/qrevent/qrevent/internal/models"
	"github.com/qrevent/qrevent/internal/store"
)

type RegisterRequest struct {
	Name       string `json:"nom" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	Gender     string `json:"sexe"`
	Profession string `json:"profession"`
	Phone      string `json:"phone"`
	RoleName   string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthHandler struct {
	store  *store.Store
	issuer *auth.Issuer
}

func NewAuthHandler(st *store.Store, issuer *auth.Issuer) *AuthHandler {
	return &AuthHandler{store: st, issuer: issuer}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	// Admin accounts are never self-assigned.
	roleName := strings.ToLower(strings.TrimSpace(req.RoleName))
	if roleName == "" {
		roleName = models.RoleParticipant
	}
	if roleName == models.RoleAdmin {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid role.")
		return
	}

	ctx := c.Request.Context()
	role, err := h.store.FindRoleByName(ctx, roleName)
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid role.")
		return
	}
	if err != nil {
		helpers.RespondInternal(c, err, "Failed to create user.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		helpers.RespondInternal(c, err, "Failed to hash the password.")
		return
	}

	user := models.User{
		Name:       req.Name,
		Email:      strings.ToLower(req.Email),
		Password:   string(hashedPassword),
		Gender:     req.Gender,
		Profession: req.Profession,
		Phone:      req.Phone,
		RoleID:     role.ID,
	}
	if err := h.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			helpers.RespondWithError(c, http.StatusConflict, "User already exists.")
			return
		}
		helpers.RespondInternal(c, err, "Failed to create user.")
		return
	}
	user.Role = *role

	token, err := h.issuer.Issue(auth.Actor{ID: user.ID, Role: role.Name})
	if err != nil {
		helpers.RespondInternal(c, err, "Failed to generate token.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully.",
		"token":   token,
		"user":    user,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	user, err := h.store.FindUserByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials.")
		return
	}
	if err != nil {
		helpers.RespondInternal(c, err, "Failed to log in.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	token, err := h.issuer.Issue(auth.Actor{ID: user.ID, Role: user.Role.Name})
	if err != nil {
		helpers.RespondInternal(c, err, "Failed to generate token.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful.",
		"token":   token,
		"user":    user,
	})
}
