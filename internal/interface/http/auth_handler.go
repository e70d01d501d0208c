package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/digitalguardian/backend/internal/application"
	"github.com/digitalguardian/backend/internal/domain/entity"
	"github.com/digitalguardian/backend/pkg/response"
	"github.com/digitalguardian/backend/pkg/validation"
)

// AuthHandler serves signup, signin, token verification and the avatar
// catalog.
type AuthHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewAuthHandler(svc *userapp.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

// Passwords carry no length rule; any non-empty password is accepted.
type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,role"`
	Avatar   string `json:"avatar"`
}

// No email format check on signin: a malformed email simply fails the lookup
// and lands in the same unauthorized answer as a wrong password.
type signinRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authPayload struct {
	Token string            `json:"token"`
	User  entity.PublicUser `json:"user"`
}

// Signup handles POST /api/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "Please provide all required fields", validation.ToDetails(err))
		return
	}

	u, token, err := h.Svc.Signup(c.Request.Context(), userapp.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Avatar:   req.Avatar,
	})
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrEmailTaken):
			response.Error[any](c, http.StatusBadRequest, "User with this email already exists", nil)
		case errors.Is(err, userapp.ErrInvalidRole), errors.Is(err, userapp.ErrUnknownAvatar):
			response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		default:
			h.Logger.WithError(err).Error("signup failed")
			response.Error[any](c, http.StatusInternalServerError, "Error creating user", nil)
		}
		return
	}

	response.Success(c, http.StatusCreated, authPayload{Token: token, User: u.Public()}, "User created successfully")
}

// Signin handles POST /api/signin.
func (h *AuthHandler) Signin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "Please provide email and password", validation.ToDetails(err))
		return
	}

	u, token, err := h.Svc.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userapp.ErrInvalidCredentials) {
			response.Error[any](c, http.StatusUnauthorized, "Invalid email or password", nil)
			return
		}
		h.Logger.WithError(err).Error("signin failed")
		response.Error[any](c, http.StatusInternalServerError, "Error during login", nil)
		return
	}

	response.Success(c, http.StatusOK, authPayload{Token: token, User: u.Public()}, "Login successful")
}

// Verify handles GET /api/verify. The token comes from the Authorization
// header rather than the auth middleware so the endpoint can report a missing
// token distinctly.
func (h *AuthHandler) Verify(c *gin.Context) {
	token := BearerToken(c)
	if token == "" {
		response.Error[any](c, http.StatusUnauthorized, "No token provided", nil)
		return
	}

	u, err := h.Svc.VerifyToken(c.Request.Context(), token)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "Invalid or expired token", nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": u.Public()}, "token valid")
}

// Avatars handles GET /api/avatars.
func (h *AuthHandler) Avatars(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"avatars": entity.Avatars()}, "avatar catalog")
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header, returning "" when absent or malformed.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
