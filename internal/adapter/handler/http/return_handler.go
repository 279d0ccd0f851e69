package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/middleware/auth"
	"github.com/wekeepgrowing/payment-reconciler/internal/usecase"
	"go.uber.org/zap"
)

const handledTranIDKey = "handled_tran_id"

var truthyFlags = map[string]bool{"1": true, "true": true, "yes": true, "on": true, "y": true}

// ParseFlag reads a boolean-ish redirect parameter. Anything outside
// 1, true, yes, on, y (case-insensitive) is false.
func ParseFlag(v string) bool {
	return truthyFlags[strings.ToLower(strings.TrimSpace(v))]
}

// ReturnHandler receives the browser redirect back from the payment gateway
type ReturnHandler struct {
	reconciler *usecase.ReconciliationService
	store      sessions.Store
	cookieName string
	logger     *zap.Logger
}

// NewReturnHandler creates the redirect handler. A nil store disables the
// per-session replay guard; the ledger guard still applies.
func NewReturnHandler(reconciler *usecase.ReconciliationService, store sessions.Store, cookieName string, logger *zap.Logger) *ReturnHandler {
	return &ReturnHandler{
		reconciler: reconciler,
		store:      store,
		cookieName: cookieName,
		logger:     logger,
	}
}

// Return handles GET /api/v1/payments/return?success=&canceled=&tran_id=
func (h *ReturnHandler) Return(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	in := entity.RedirectInput{
		UserID:   user.UserID,
		Success:  ParseFlag(c.QueryParam("success")),
		Canceled: ParseFlag(c.QueryParam("canceled")),
		TranID:   strings.TrimSpace(c.QueryParam("tran_id")),
	}

	sess := h.session(c)
	if sess != nil && in.TranID != "" {
		handled, _ := sess.Values[handledTranIDKey].(string)
		in.AlreadyHandled = handled == in.TranID
	}

	result, err := h.reconciler.Reconcile(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to reconcile payment return")
	}

	if sess != nil && in.Success && !in.Canceled && result.TranID != "" {
		sess.Values[handledTranIDKey] = result.TranID
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			h.logger.Warn("Failed to save return session", zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, result)
}

func (h *ReturnHandler) session(c echo.Context) *sessions.Session {
	if h.store == nil {
		return nil
	}
	// a tampered or stale cookie yields a fresh session along with the error
	sess, err := h.store.Get(c.Request(), h.cookieName)
	if err != nil {
		h.logger.Debug("Discarding unreadable return session", zap.Error(err))
	}
	return sess
}
