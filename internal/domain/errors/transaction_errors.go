package errors

import "errors"

var (
	// ErrTransactionNotFound indicates that no ledger record exists for the tran_id
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrNotOwner indicates that the transaction belongs to another user
	ErrNotOwner = errors.New("transaction belongs to another user")

	// ErrDuplicateTransaction indicates that the tran_id is already registered
	ErrDuplicateTransaction = errors.New("transaction already registered")

	// ErrUnknownPlan indicates that the plan is not in the catalog
	ErrUnknownPlan = errors.New("unknown plan")

	// ErrInvalidAmount indicates that the amount does not match the catalog price
	ErrInvalidAmount = errors.New("amount does not match plan price")

	// ErrInvalidDowngrade indicates a downgrade of a transaction that is not completed
	ErrInvalidDowngrade = errors.New("only completed transactions can be downgraded")

	// ErrAutoRenewNotAllowed indicates that auto-renew cannot be enabled on the transaction
	ErrAutoRenewNotAllowed = errors.New("auto-renew can only be enabled on an active transaction")

	// ErrInvalidSignature indicates a gateway notification with a bad signature
	ErrInvalidSignature = errors.New("invalid gateway signature")

	// ErrMissingTranID indicates a gateway notification without tran_id
	ErrMissingTranID = errors.New("tran_id is required")
)
