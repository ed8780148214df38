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

// AppError는 코드, 사용자 노출용 메시지, 원인 에러를 함께 보관합니다
type AppError struct {
	code    string
	message string
	err     error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

// Code는 에러 코드를 반환합니다
func (e *AppError) Code() string { return e.code }

// Message는 원인 에러를 제외한 메시지만 반환합니다
func (e *AppError) Message() string { return e.message }

func (e *AppError) Unwrap() error { return e.err }

// Is는 같은 코드와 메시지를 가진 AppError 를 동일한 에러로 판단합니다.
// 센티넬 에러를 WithCause 로 복제해도 errors.Is 가 동작하도록 합니다.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.code == t.code && e.message == t.message
}

// WithCause는 같은 코드와 메시지에 원인 에러를 붙인 복사본을 반환합니다
func (e *AppError) WithCause(err error) *AppError {
	return &AppError{code: e.code, message: e.message, err: err}
}

// NewAppError는 새 애플리케이션 에러를 생성합니다
func NewAppError(code string, message string, err error) *AppError {
	return &AppError{
		code:    code,
		message: message,
		err:     err,
	}
}

// Wrap은 기존 에러를 래핑합니다. AppError 인 경우 코드를 유지합니다
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return NewAppError(appErr.Code(), message, err)
	}

	return NewAppError(ErrInternal, message, err)
}

// CodeOf는 에러 체인에서 가장 바깥 AppError 의 코드를 찾습니다
func CodeOf(err error) string {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Code()
	}
	return ErrInternal
}
