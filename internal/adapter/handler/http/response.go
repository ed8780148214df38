package http

import (
	"github.com/labstack/echo/v4"
	domainErrors "github.com/wekeepgrowing/mailshield/internal/domain/errors"
	"github.com/wekeepgrowing/mailshield/internal/middleware/auth"
	"github.com/wekeepgrowing/mailshield/internal/usecase"
	apperrors "github.com/wekeepgrowing/mailshield/pkg/errors"
	"go.uber.org/zap"
)

var errAuthRequired = apperrors.NewAppError(apperrors.ErrUnauthenticated, "Authentication required", nil)

// respondError logs err and writes it in the shared error envelope
func respondError(c echo.Context, logger *zap.Logger, err error, msg string, fields ...zap.Field) error {
	fields = append(fields,
		zap.String("path", c.Path()),
		zap.String("method", c.Request().Method))
	apperrors.LogError(logger, err, msg, fields...)

	status, env := apperrors.ToEnvelope(err)
	return c.JSON(status, env)
}

// bindAndValidate binds the request into req and runs the registered validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return domainErrors.ErrInvalidRequestBody
	}
	return c.Validate(req)
}

func callerFrom(user *auth.AuthUser) usecase.Caller {
	return usecase.Caller{UserID: user.UserID, ServiceRole: user.IsServiceRole()}
}
