package errors

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ToHTTPStatus는 에러 코드를 HTTP 상태 코드로 변환합니다
func ToHTTPStatus(code string) int {
	httpStatus, _ := GetCodeMapping(code)
	return httpStatus
}

// Envelope는 API 응답에 쓰는 공통 에러 본문입니다
type Envelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// ToEnvelope는 에러를 HTTP 상태 코드와 공통 에러 본문으로 변환합니다.
// 내부 에러(5xx)의 원인은 응답에 노출하지 않습니다.
func ToEnvelope(err error) (int, Envelope) {
	var appErr *AppError
	if As(err, &appErr) {
		status := ToHTTPStatus(appErr.Code())
		if status >= http.StatusInternalServerError {
			return status, Envelope{Error: appErr.Message()}
		}
		env := Envelope{Error: appErr.Message()}
		if appErr.err != nil {
			env.Details = appErr.err.Error()
		}
		return status, env
	}

	var echoErr *echo.HTTPError
	if As(err, &echoErr) {
		msg := http.StatusText(echoErr.Code)
		if m, ok := echoErr.Message.(string); ok && m != "" {
			msg = m
		} else if echoErr.Message != nil {
			msg = fmt.Sprint(echoErr.Message)
		}
		return echoErr.Code, Envelope{Error: msg}
	}

	return http.StatusInternalServerError, Envelope{Error: http.StatusText(http.StatusInternalServerError)}
}

// ToHTTPError는 에러를 Echo HTTP 에러로 변환합니다
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}
	status, env := ToEnvelope(err)
	return echo.NewHTTPError(status, env.Error).SetInternal(err)
}

// FromHTTPError는 Echo HTTP 에러를 내부 에러로 변환합니다
func FromHTTPError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return err
	}

	var echoErr *echo.HTTPError
	if As(err, &echoErr) {
		msg, ok := echoErr.Message.(string)
		if !ok {
			msg = "HTTP error"
		}
		return NewAppError(httpStatusToCode(echoErr.Code), msg, nil)
	}

	return NewAppError(ErrInternal, err.Error(), err)
}

func httpStatusToCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrInvalidArgument
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadGateway:
		return ErrUpstream
	case http.StatusGatewayTimeout:
		return ErrTimeout
	default:
		return ErrInternal
	}
}
