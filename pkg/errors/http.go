package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// JSON은 에러를 {"error": 메시지, "code": 사유} 형태로 응답합니다.
// AppError가 아닌 에러는 내부 정보를 노출하지 않고 500으로 응답합니다.
func JSON(c echo.Context, err error) error {
	var appErr *AppError
	if !As(err, &appErr) {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Internal server error",
			"code":  ErrInternal,
		})
	}
	return c.JSON(ToHTTPStatus(appErr.Code()), echo.Map{
		"error": appErr.Message(),
		"code":  appErr.Reason(),
	})
}
