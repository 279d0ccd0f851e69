package errors

import (
	"errors"
	"fmt"
)

// 표준 라이브러리 함수 재노출
var (
	New    = errors.New
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
)

// AppError는 분류 코드와 응답용 사유(reason)를 함께 가지는 애플리케이션 에러입니다.
// code는 HTTP 상태 결정에, reason은 클라이언트에 내려가는 세부 코드(예: INVALID_DOWNGRADE)에 사용됩니다.
type AppError struct {
	code    string
	reason  string
	message string
	err     error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

func (e *AppError) Code() string { return e.code }

// Reason 세부 사유 코드를 반환합니다. 지정되지 않았으면 분류 코드를 그대로 사용합니다.
func (e *AppError) Reason() string {
	if e.reason == "" {
		return e.code
	}
	return e.reason
}

// Message 내부 에러를 제외한 사용자용 메시지를 반환합니다.
func (e *AppError) Message() string { return e.message }

func (e *AppError) Unwrap() error { return e.err }

// NewAppError 새 애플리케이션 에러를 생성합니다.
func NewAppError(code string, message string, err error) *AppError {
	return &AppError{code: code, message: message, err: err}
}

// WithReason 세부 사유 코드를 지정한 복사본을 반환합니다.
func (e *AppError) WithReason(reason string) *AppError {
	clone := *e
	clone.reason = reason
	return &clone
}

// CodeOf 에러 체인에서 AppError 코드를 찾아 반환합니다. 없으면 ErrInternal입니다.
func CodeOf(err error) string {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.code
	}
	return ErrInternal
}
