package analytics

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/restocklab/restock-backend/internal/core/aggregate"
	httperr "github.com/restocklab/restock-backend/internal/core/errors"
	"github.com/restocklab/restock-backend/internal/core/report"
)

// RegisterRoutes registers the analytics endpoints.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/companies/:company_id/stats/daily", s.DailyStatsHandler)
	r.GET("/v1/companies/:company_id/stats/comparison", s.ComparisonHandler)
	r.GET("/v1/companies/:company_id/stats/breakdown", s.BreakdownHandler)
	r.GET("/v1/companies/:company_id/stats/entity/:dimension/:entity_id", s.EntityStatsHandler)
	r.GET("/v1/companies/:company_id/dashboard/momentum", s.MomentumHandler)
}

// queryFromRequest extracts the calendar parameters shared by every
// analytics endpoint.
func queryFromRequest(c *gin.Context) Query {
	return Query{
		CompanyID: c.Param("company_id"),
		TimeZone:  c.Query("tz"),
		Period:    c.Query("period"),
		At:        c.Query("at"),
	}
}

// DailyStatsHandler handles GET /v1/companies/:company_id/stats/daily.
func (s *Service) DailyStatsHandler(c *gin.Context) {
	stats, err := s.DailyStats(c.Request.Context(), queryFromRequest(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// EntityStatsHandler handles
// GET /v1/companies/:company_id/stats/entity/:dimension/:entity_id.
func (s *Service) EntityStatsHandler(c *gin.Context) {
	stats, err := s.EntityStats(
		c.Request.Context(),
		queryFromRequest(c),
		aggregate.Dimension(c.Param("dimension")),
		c.Param("entity_id"),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ComparisonHandler handles GET /v1/companies/:company_id/stats/comparison.
// The optional "previous" parameter selects how many earlier periods the
// current one is averaged against.
func (s *Service) ComparisonHandler(c *gin.Context) {
	previousCount := 0
	if raw := c.Query("previous"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(c, invalidQueryf("invalid 'previous' count %q", raw))
			return
		}
		previousCount = n
	}

	stats, err := s.PeriodComparison(c.Request.Context(), queryFromRequest(c), previousCount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// MomentumHandler handles GET /v1/companies/:company_id/dashboard/momentum.
// The "dimension" parameter defaults to sku.
func (s *Service) MomentumHandler(c *gin.Context) {
	dim := aggregate.Dimension(c.DefaultQuery("dimension", string(aggregate.DimensionSKU)))

	stats, err := s.Momentum(c.Request.Context(), queryFromRequest(c), dim)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// BreakdownHandler handles GET /v1/companies/:company_id/stats/breakdown.
// The focus entity (sku_id, machine_id or location_id) selects the
// breakdown dimension; "preset" resolves period/timezone defaults from a
// configured report preset.
func (s *Service) BreakdownHandler(c *gin.Context) {
	stats, err := s.Breakdown(
		c.Request.Context(),
		queryFromRequest(c),
		c.Query("sku_id"),
		c.Query("machine_id"),
		c.Query("location_id"),
		c.Query("preset"),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// writeError maps service errors to the structured HTTP error shape.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   err.Error(),
		})
	case errors.Is(err, report.ErrPresetNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpPresetNotFoundError,
			Message:   err.Error(),
		})
	default:
		slog.Error("Analytics request failed", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to compute analytics",
		})
	}
}
