package http

import (
	"context"

	"github.com/labstack/echo/v4"
	domainErrors "github.com/wekeepgrowing/payment-reconciler/internal/domain/errors"
	pkgErrors "github.com/wekeepgrowing/payment-reconciler/pkg/errors"
	"go.uber.org/zap"
)

// domainErrorTable maps domain sentinels to response codes. The first match wins.
var domainErrorTable = []struct {
	target  error
	code    string
	reason  string
	message string
}{
	{domainErrors.ErrTransactionNotFound, pkgErrors.ErrNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found"},
	{domainErrors.ErrNotOwner, pkgErrors.ErrUnauthorized, "NOT_OWNER", "Transaction belongs to another user"},
	{domainErrors.ErrDuplicateTransaction, pkgErrors.ErrConflict, "DUPLICATE_TRANSACTION", "Transaction already registered"},
	{domainErrors.ErrUnknownPlan, pkgErrors.ErrInvalidArgument, "UNKNOWN_PLAN", "Unknown plan"},
	{domainErrors.ErrInvalidAmount, pkgErrors.ErrInvalidArgument, "INVALID_AMOUNT", "Amount does not match the plan price"},
	{domainErrors.ErrInvalidDowngrade, pkgErrors.ErrFailedPrecondition, "INVALID_DOWNGRADE", "Only an active paid plan can be downgraded"},
	{domainErrors.ErrAutoRenewNotAllowed, pkgErrors.ErrFailedPrecondition, "AUTO_RENEW_NOT_ALLOWED", "Auto-renew can only be enabled on an active plan"},
	{domainErrors.ErrInvalidSignature, pkgErrors.ErrUnauthenticated, "INVALID_SIGNATURE", "Invalid signature"},
	{domainErrors.ErrMissingTranID, pkgErrors.ErrInvalidArgument, "MISSING_TRAN_ID", "tran_id is required"},
	{context.DeadlineExceeded, pkgErrors.ErrTimeout, pkgErrors.ErrTimeout, "Request timed out"},
}

// toAppError converts any error returned by a usecase to an AppError.
// Unknown errors become INTERNAL without exposing their text.
func toAppError(err error) *pkgErrors.AppError {
	var appErr *pkgErrors.AppError
	if pkgErrors.As(err, &appErr) {
		return appErr
	}
	for _, entry := range domainErrorTable {
		if pkgErrors.Is(err, entry.target) {
			return pkgErrors.NewAppError(entry.code, entry.message, err).WithReason(entry.reason)
		}
	}
	return pkgErrors.NewAppError(pkgErrors.ErrInternal, "Internal server error", err)
}

func respondError(c echo.Context, logger *zap.Logger, err error, msg string) error {
	appErr := toAppError(err)
	pkgErrors.LogError(logger, appErr, msg,
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path))
	return pkgErrors.JSON(c, appErr)
}
