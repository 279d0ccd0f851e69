package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/payment-reconciler/internal/middleware/auth"
	"github.com/wekeepgrowing/payment-reconciler/internal/usecase"
	"go.uber.org/zap"
)

// TransactionHandler serves registration, lookup and renewal changes of
// the caller's own transactions
type TransactionHandler struct {
	transactions *usecase.TransactionService
	renewals     *usecase.RenewalService
	resolver     *usecase.PlanResolver
	logger       *zap.Logger
}

func NewTransactionHandler(
	transactions *usecase.TransactionService,
	renewals *usecase.RenewalService,
	resolver *usecase.PlanResolver,
	logger *zap.Logger,
) *TransactionHandler {
	return &TransactionHandler{
		transactions: transactions,
		renewals:     renewals,
		resolver:     resolver,
		logger:       logger,
	}
}

type registerTransactionRequest struct {
	TranID    string           `json:"tran_id" validate:"omitempty,max=128"`
	Plan      string           `json:"plan" validate:"required,max=64"`
	Amount    *decimal.Decimal `json:"amount"`
	Currency  string           `json:"currency" validate:"omitempty,len=3,alpha"`
	AutoRenew bool             `json:"auto_renew"`
}

// Register handles POST /api/v1/transactions
func (h *TransactionHandler) Register(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	var req registerTransactionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err, "Invalid transaction registration")
	}

	in := usecase.RegisterRequest{
		TranID:    req.TranID,
		Plan:      req.Plan,
		Currency:  req.Currency,
		AutoRenew: req.AutoRenew,
	}
	if req.Amount != nil {
		in.Amount = *req.Amount
	}

	tx, err := h.transactions.Register(c.Request().Context(), user.UserID, in)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to register transaction")
	}
	return c.JSON(http.StatusCreated, tx)
}

// Get handles GET /api/v1/transactions/:tranId
func (h *TransactionHandler) Get(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	tx, err := h.transactions.Get(c.Request().Context(), user.UserID, c.Param("tranId"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get transaction")
	}
	return c.JSON(http.StatusOK, tx)
}

// CancelAutoRenew handles POST /api/v1/transactions/:tranId/auto-renew/cancel
func (h *TransactionHandler) CancelAutoRenew(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	ctx := c.Request().Context()
	tx, err := h.renewals.CancelAutoRenew(ctx, user.UserID, c.Param("tranId"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to cancel auto-renew")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"transaction": tx,
		"plan":        newPlanResponse(h.resolver.Resolve(ctx, user.UserID)),
	})
}

// EnableAutoRenew handles POST /api/v1/transactions/:tranId/auto-renew/enable
func (h *TransactionHandler) EnableAutoRenew(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	ctx := c.Request().Context()
	tx, err := h.renewals.EnableAutoRenew(ctx, user.UserID, c.Param("tranId"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to enable auto-renew")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"transaction": tx,
		"plan":        newPlanResponse(h.resolver.Resolve(ctx, user.UserID)),
	})
}

// Downgrade handles POST /api/v1/transactions/:tranId/downgrade
func (h *TransactionHandler) Downgrade(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	ctx := c.Request().Context()
	tx, err := h.renewals.DowngradeToFree(ctx, user.UserID, c.Param("tranId"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to downgrade plan")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"transaction": tx,
		"plan":        newPlanResponse(h.resolver.Resolve(ctx, user.UserID)),
	})
}
