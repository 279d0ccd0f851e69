package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/middleware/auth"
	"github.com/wekeepgrowing/payment-reconciler/internal/usecase"
	"go.uber.org/zap"
)

type PlanHandler struct {
	resolver *usecase.PlanResolver
	repair   *usecase.PlanRepairService
	logger   *zap.Logger
}

func NewPlanHandler(resolver *usecase.PlanResolver, repair *usecase.PlanRepairService, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{
		resolver: resolver,
		repair:   repair,
		logger:   logger,
	}
}

type planResponse struct {
	*entity.UserPlanView
	HasAccess bool `json:"has_access"`
}

func newPlanResponse(view *entity.UserPlanView) planResponse {
	return planResponse{UserPlanView: view, HasAccess: view.HasAccess()}
}

// GetPlan handles GET /api/v1/plan. Anonymous callers get the free plan.
func (h *PlanHandler) GetPlan(c echo.Context) error {
	view := h.resolver.Resolve(c.Request().Context(), auth.UserIDOrNil(c))
	return c.JSON(http.StatusOK, newPlanResponse(view))
}

// Repair handles POST /api/v1/plan/repair
func (h *PlanHandler) Repair(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	ctx := c.Request().Context()
	repairs, err := h.repair.Repair(ctx, user.UserID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to repair cached plan")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"repairs": repairs,
		"plan":    newPlanResponse(h.resolver.Resolve(ctx, user.UserID)),
	})
}
