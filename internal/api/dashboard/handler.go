// Package dashboard provides REST API handlers for the engine's read surface.
// It exposes endpoints for leaderboards, gamification snapshots, badges, and
// nearby organizations.
package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecocycle/ecocycle/internal/errs"
	"github.com/ecocycle/ecocycle/internal/models"
	"github.com/ecocycle/ecocycle/internal/service/gamification"
	"github.com/ecocycle/ecocycle/internal/service/leaderboard"
	"github.com/ecocycle/ecocycle/internal/service/pickups"
	"github.com/ecocycle/ecocycle/pkg/logger"
)

// GamificationService interface for snapshot and badge reads.
type GamificationService interface {
	GetSnapshot(userID uint) (*gamification.Snapshot, error)
	GetUserBadges(userID uint) ([]models.UserBadge, error)
	GetBadgeProgress(userID uint) ([]gamification.BadgeProgress, error)
	GetBadgeCatalog() ([]models.Badge, error)
}

// LeaderboardService interface for leaderboard reads.
type LeaderboardService interface {
	Top(ctx context.Context, period string, page int) (*leaderboard.Page, error)
	Rank(ctx context.Context, userID uint, period string) (int, error)
}

// PickupService interface for proximity lookups.
type PickupService interface {
	FindNearest(lat, lon, radiusKm float64, services []string, limit int) ([]pickups.Match, error)
}

// Handler handles dashboard API requests.
type Handler struct {
	gamificationService GamificationService
	leaderboardService  LeaderboardService
	pickupService       PickupService
	log                 *logger.Logger
}

// NewHandler creates a new dashboard handler.
func NewHandler(
	gamificationService *gamification.Service,
	leaderboardService *leaderboard.Service,
	pickupService *pickups.Service,
	log *logger.Logger,
) *Handler {
	return &Handler{
		gamificationService: gamificationService,
		leaderboardService:  leaderboardService,
		pickupService:       pickupService,
		log:                 log,
	}
}

// NewHandlerWithInterfaces creates a new dashboard handler with interface
// dependencies (useful for testing).
func NewHandlerWithInterfaces(
	gamificationService GamificationService,
	leaderboardService LeaderboardService,
	pickupService PickupService,
	log *logger.Logger,
) *Handler {
	return &Handler{
		gamificationService: gamificationService,
		leaderboardService:  leaderboardService,
		pickupService:       pickupService,
		log:                 log,
	}
}

// RegisterRoutes attaches the dashboard endpoints to a router group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/leaderboard", h.GetLeaderboard)
	r.GET("/users/:id/snapshot", h.GetUserSnapshot)
	r.GET("/users/:id/rank", h.GetUserRank)
	r.GET("/users/:id/badges", h.GetUserBadges)
	r.GET("/badges", h.GetBadgeCatalog)
	r.GET("/organizations/nearby", h.GetNearbyOrganizations)
}

// GetLeaderboard returns one page of the leaderboard.
// GET /api/v1/leaderboard?period=weekly&page=1.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	period := c.DefaultQuery("period", leaderboard.PeriodAllTime)
	page, err := h.parsePositiveInt(c, "page", 1)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.leaderboardService.Top(c.Request.Context(), period, page)
	if err != nil {
		h.serviceError(c, err, "Failed to retrieve leaderboard")
		return
	}

	h.log.Info().
		Str("period", period).
		Int("page", page).
		Int("entries", len(result.Entries)).
		Msg("Retrieved leaderboard")

	c.JSON(http.StatusOK, gin.H{
		"leaderboard":  result,
		"generated_at": time.Now().UTC(),
	})
}

// GetUserSnapshot returns a user's gamification snapshot.
// GET /api/v1/users/:id/snapshot.
func (h *Handler) GetUserSnapshot(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := h.gamificationService.GetSnapshot(userID)
	if err != nil {
		h.serviceError(c, err, "Failed to retrieve user snapshot")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshot":     snapshot,
		"generated_at": time.Now().UTC(),
	})
}

// GetUserRank returns a user's rank within a period.
// GET /api/v1/users/:id/rank?period=monthly.
func (h *Handler) GetUserRank(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	period := c.DefaultQuery("period", leaderboard.PeriodAllTime)

	rank, err := h.leaderboardService.Rank(c.Request.Context(), userID, period)
	if err != nil {
		h.serviceError(c, err, "Failed to retrieve user rank")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"period":  period,
		"rank":    rank,
	})
}

// GetUserBadges returns a user's earned badges and progress toward the rest.
// GET /api/v1/users/:id/badges.
func (h *Handler) GetUserBadges(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	earned, err := h.gamificationService.GetUserBadges(userID)
	if err != nil {
		h.serviceError(c, err, "Failed to retrieve user badges")
		return
	}

	progress, err := h.gamificationService.GetBadgeProgress(userID)
	if err != nil {
		h.serviceError(c, err, "Failed to retrieve badge progress")
		return
	}

	h.log.Info().
		Uint("user_id", userID).
		Int("badge_count", len(earned)).
		Msg("Retrieved user badges")

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"badges":       earned,
		"progress":     progress,
		"total_badges": len(earned),
		"generated_at": time.Now().UTC(),
	})
}

// GetBadgeCatalog returns all available badges.
// GET /api/v1/badges.
func (h *Handler) GetBadgeCatalog(c *gin.Context) {
	catalog, err := h.gamificationService.GetBadgeCatalog()
	if err != nil {
		h.serviceError(c, err, "Failed to retrieve badge catalog")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"badges":       catalog,
		"total_badges": len(catalog),
		"generated_at": time.Now().UTC(),
	})
}

// GetNearbyOrganizations returns organizations within a radius, nearest first.
// GET /api/v1/organizations/nearby?lat=..&lon=..&radius_km=10&services=recycling,pickup&limit=5.
func (h *Handler) GetNearbyOrganizations(c *gin.Context) {
	lat, err := h.parseFloat(c, "lat")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := h.parseFloat(c, "lon")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	radiusKm := 0.0
	if raw := c.Query("radius_km"); raw != "" {
		radiusKm, err = strconv.ParseFloat(raw, 64)
		if err != nil || radiusKm <= 0 {
			h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid radius_km: %s", raw))
			return
		}
	}

	var services []string
	if raw := c.Query("services"); raw != "" {
		services = strings.Split(raw, ",")
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid limit: %s", raw))
			return
		}
	}

	matches, err := h.pickupService.FindNearest(lat, lon, radiusKm, services, limit)
	if err != nil {
		h.serviceError(c, err, "Failed to find nearby organizations")
		return
	}

	h.log.Info().
		Float64("lat", lat).
		Float64("lon", lon).
		Int("matches", len(matches)).
		Msg("Retrieved nearby organizations")

	c.JSON(http.StatusOK, gin.H{
		"organizations": matches,
		"total":         len(matches),
		"generated_at":  time.Now().UTC(),
	})
}

// Helper functions

// parseUserID extracts and validates the user ID from the URL parameter.
func (h *Handler) parseUserID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID: %s", idStr)
	}
	return uint(id), nil
}

// parsePositiveInt extracts a positive integer query parameter.
func (h *Handler) parsePositiveInt(c *gin.Context, name string, defaultValue int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, fmt.Errorf("invalid %s parameter: %s", name, raw)
	}
	return value, nil
}

// parseFloat extracts a required float query parameter.
func (h *Handler) parseFloat(c *gin.Context, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("%s parameter is required", name)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: %s", name, raw)
	}
	return value, nil
}

// serviceError maps service-level errors onto HTTP status codes.
func (h *Handler) serviceError(c *gin.Context, err error, fallback string) {
	switch {
	case errs.IsValidation(err):
		h.errorResponse(c, http.StatusBadRequest, err.Error())
	case errs.IsNotFound(err):
		h.errorResponse(c, http.StatusNotFound, err.Error())
	case errs.IsConflict(err):
		h.errorResponse(c, http.StatusConflict, err.Error())
	default:
		h.log.Error().Err(err).Msg(fallback)
		h.errorResponse(c, http.StatusInternalServerError, fallback)
	}
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
