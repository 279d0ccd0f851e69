package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/payment-reconciler/internal/usecase"
	pkgErrors "github.com/wekeepgrowing/payment-reconciler/pkg/errors"
	"go.uber.org/zap"
)

const defaultStatsWindow = 24 * time.Hour

// InternalHandler serves operator endpoints behind the internal token
type InternalHandler struct {
	stats  *usecase.VerificationStatsService
	logger *zap.Logger
}

func NewInternalHandler(stats *usecase.VerificationStatsService, logger *zap.Logger) *InternalHandler {
	return &InternalHandler{
		stats:  stats,
		logger: logger,
	}
}

// VerificationStats handles GET /api/v1/internal/verification-stats?since=
func (h *InternalHandler) VerificationStats(c echo.Context) error {
	since := time.Now().UTC().Add(-defaultStatsWindow)
	if raw := c.QueryParam("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return pkgErrors.JSON(c, pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument,
				"invalid since format, use RFC 3339", err).WithReason(reasonInvalidRequest))
		}
		since = parsed
	}

	stats, err := h.stats.Stats(c.Request().Context(), since)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to compute verification stats")
	}
	return c.JSON(http.StatusOK, stats)
}
