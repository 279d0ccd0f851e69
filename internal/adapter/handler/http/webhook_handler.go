package http

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/usecase"
	pkgErrors "github.com/wekeepgrowing/payment-reconciler/pkg/errors"
	"go.uber.org/zap"
)

// SignatureHeader carries the hex HMAC-SHA256 of the notification body
const SignatureHeader = "X-Gateway-Signature"

const maxNotificationBody = 1 << 20

type WebhookHandler struct {
	notifications *usecase.NotificationService
	logger        *zap.Logger
}

func NewWebhookHandler(notifications *usecase.NotificationService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		notifications: notifications,
		logger:        logger,
	}
}

// HandleWebhook handles POST /webhook/gateway. An undecided notification is
// answered with 202 so the gateway delivers it again.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxNotificationBody))
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return pkgErrors.JSON(c, pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, "Error reading request body", err))
	}

	result, err := h.notifications.Handle(c.Request().Context(), body, c.Request().Header.Get(SignatureHeader))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to handle gateway notification")
	}

	status := http.StatusOK
	if result.Outcome == entity.OutcomeDeferred {
		status = http.StatusAccepted
	}
	return c.JSON(status, echo.Map{
		"tran_id": result.TranID,
		"outcome": result.Outcome,
	})
}
