package errors

import "net/http"

// 공통 에러 코드 정의
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	ErrRateLimited     = "RATE_LIMITED"
	ErrUpstream        = "UPSTREAM"
	ErrTimeout         = "TIMEOUT"
)

// CodePair는 에러 코드별 HTTP 상태와 gRPC 코드 쌍입니다
type CodePair struct {
	HTTPStatus int
	GRPCCode   int
}

var codeMapping = map[string]CodePair{
	ErrInternal:        {http.StatusInternalServerError, 13},
	ErrNotFound:        {http.StatusNotFound, 5},
	ErrInvalidArgument: {http.StatusBadRequest, 3},
	ErrUnauthenticated: {http.StatusUnauthorized, 16},
	ErrUnauthorized:    {http.StatusForbidden, 7},
	ErrConflict:        {http.StatusConflict, 6},
	ErrRateLimited:     {http.StatusTooManyRequests, 8},
	ErrUpstream:        {http.StatusBadGateway, 14},
	ErrTimeout:         {http.StatusGatewayTimeout, 4},
}

// GetCodeMapping은 에러 코드에 대한 HTTP 및 gRPC 코드를 반환합니다.
// 등록되지 않은 코드는 Internal 로 취급합니다.
func GetCodeMapping(code string) (int, int) {
	if pair, ok := codeMapping[code]; ok {
		return pair.HTTPStatus, pair.GRPCCode
	}
	return http.StatusInternalServerError, 13
}
