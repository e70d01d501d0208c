package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/digitalguardian/backend/internal/application"
	"github.com/digitalguardian/backend/pkg/response"
	"github.com/digitalguardian/backend/pkg/validation"
)

// UserHandler serves the profile, points and leaderboard endpoints.
type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

type updatePointsRequest struct {
	// Pointer so a missing field is distinguishable from an explicit zero.
	Points *int `json:"points" binding:"required"`
}

// GetProfile handles GET /api/profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	uid := c.GetString("userID")
	u, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "User not found", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u.Public()}, "profile")
}

// UpdateProfile handles PUT /api/profile. Only name and avatar are mutable;
// anything else in the body is ignored.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString("userID")
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, userapp.UpdateProfileInput{Name: req.Name, Avatar: req.Avatar})
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "User not found", nil)
		case errors.Is(err, userapp.ErrUnknownAvatar):
			response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		default:
			h.Logger.WithError(err).Error("update profile failed")
			response.Error[any](c, http.StatusInternalServerError, "Error updating profile", nil)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u.Public()}, "Profile updated successfully")
}

// UpdatePoints handles PUT /api/points. The body carries a signed delta, not
// an absolute value.
func (h *UserHandler) UpdatePoints(c *gin.Context) {
	uid := c.GetString("userID")
	var req updatePointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "Points must be a number", validation.ToDetails(err))
		return
	}
	points, level, err := h.Svc.AdjustPoints(c.Request.Context(), uid, *req.Points)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "User not found", nil)
			return
		}
		h.Logger.WithError(err).Error("update points failed")
		response.Error[any](c, http.StatusInternalServerError, "Error updating points", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"points": points, "level": level}, "Points updated successfully")
}

// Leaderboard handles GET /api/leaderboard.
func (h *UserHandler) Leaderboard(c *gin.Context) {
	entries, err := h.Svc.Leaderboard(c.Request.Context())
	if err != nil {
		h.Logger.WithError(err).Error("leaderboard fetch failed")
		response.Error[any](c, http.StatusInternalServerError, "Error fetching leaderboard", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"leaderboard": entries}, "leaderboard")
}

// Search handles GET /api/users/search?q=.
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	results, err := h.Svc.SearchUsers(c.Request.Context(), q, 10)
	if err != nil {
		h.Logger.WithError(err).Error("user search failed")
		response.Error[any](c, http.StatusInternalServerError, "Error searching users", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results}, "search results")
}

// UploadAvatar handles POST /api/profile/avatar with a multipart "avatar"
// image.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	uid := c.GetString("userID")
	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing avatar file", nil)
		return
	}
	defer func() { _ = file.Close() }()

	u, err := h.Svc.UploadAvatar(c.Request.Context(), uid, file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "User not found", nil)
			return
		}
		h.Logger.WithError(err).Error("avatar upload failed")
		response.Error[any](c, http.StatusInternalServerError, "Error uploading avatar", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u.Public()}, "Avatar uploaded successfully")
}
