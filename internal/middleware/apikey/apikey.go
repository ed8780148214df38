package apikey

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/mailshield/internal/domain/errors"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
	apperrors "github.com/wekeepgrowing/mailshield/pkg/errors"
	"go.uber.org/zap"
)

// contextKey is the echo context key of the validated key
const contextKey = "api_key_validation"

// touchTimeout bounds the last-used update that runs after the response
const touchTimeout = 5 * time.Second

// UsageRecorder records key usage. APIKeyRepository satisfies it.
type UsageRecorder interface {
	TouchLastUsed(ctx context.Context, keyID string) error
}

// PlanResolver resolves an account's entitlements
type PlanResolver interface {
	ResolveForAccount(ctx context.Context, accountID string) (*entity.Entitlements, error)
}

// Config holds the dependencies of the API key middleware
type Config struct {
	Validator repository.APIKeyValidator
	// Usage is optional; nil disables last-used tracking.
	Usage  UsageRecorder
	Logger *zap.Logger
}

// Middleware authenticates the Bearer API key and stores the validation on
// the echo context.
func Middleware(config Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawKey, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return Render(c, domainErrors.NewMissingAPIKeyError())
			}

			ctx := c.Request().Context()
			validation, err := config.Validator.ValidateKeyHash(ctx, entity.HashAPIKey(rawKey))
			if err != nil {
				config.Logger.Error("API key validation failed",
					zap.String("path", c.Request().URL.Path),
					zap.Error(err))
				return Render(c, domainErrors.NewKeyStoreUnavailableError(err))
			}
			if validation == nil || !validation.Valid || validation.AccountID == "" {
				config.Logger.Warn("Rejected API key",
					zap.String("path", c.Request().URL.Path),
					zap.String("remote_ip", c.RealIP()))
				return Render(c, domainErrors.NewInvalidAPIKeyError())
			}

			SetValidation(c, validation)
			if config.Usage != nil && validation.KeyID != "" {
				go touch(config, validation.KeyID)
			}
			return next(c)
		}
	}
}

func touch(config Config, keyID string) {
	ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
	defer cancel()
	if err := config.Usage.TouchLastUsed(ctx, keyID); err != nil {
		config.Logger.Warn("Failed to record API key usage",
			zap.String("key_id", keyID),
			zap.Error(err))
	}
}

// bearerToken extracts the credential of an "Authorization: Bearer" header
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// SetValidation stores a validated key on c the way Middleware does
func SetValidation(c echo.Context, v *entity.APIKeyValidation) {
	c.Set(contextKey, v)
}

// FromContext returns the validated key of the request
func FromContext(c echo.Context) (*entity.APIKeyValidation, bool) {
	v, ok := c.Get(contextKey).(*entity.APIKeyValidation)
	return v, ok && v != nil
}

// RequirePermission rejects keys that do not grant permission
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := FromContext(c)
			if !ok {
				return Render(c, domainErrors.NewMissingAPIKeyError())
			}
			if !entity.HasPermission(key.Permissions, permission) {
				return Render(c, domainErrors.NewInsufficientPermissionError(permission))
			}
			return next(c)
		}
	}
}

// RequirePlan rejects accounts whose plan is not one of plans
func RequirePlan(resolver PlanResolver, logger *zap.Logger, plans ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(plans))
	for _, p := range plans {
		allowed[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := FromContext(c)
			if !ok {
				return Render(c, domainErrors.NewMissingAPIKeyError())
			}

			ent, err := resolver.ResolveForAccount(c.Request().Context(), key.AccountID)
			if err != nil {
				logger.Error("Failed to resolve plan for API key",
					zap.String("account_id", key.AccountID),
					zap.Error(err))
				return renderError(c, err)
			}
			if !allowed[ent.PlanName] {
				return Render(c, domainErrors.NewPlanRequiredError(ent.PlanName, plans...))
			}
			return next(c)
		}
	}
}

// RateLimitConfig configures the per-key limiter
type RateLimitConfig struct {
	Limiter repository.RateLimiter
	Window  time.Duration
	// DefaultLimit applies to keys without their own rate limit.
	DefaultLimit int
	Logger       *zap.Logger
}

// RateLimit counts requests per key in fixed windows. Limiter failures let
// the request through.
func RateLimit(config RateLimitConfig) echo.MiddlewareFunc {
	if config.Window <= 0 {
		config.Window = time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := FromContext(c)
			if !ok {
				return next(c)
			}
			limit := key.RateLimit
			if limit <= 0 {
				limit = config.DefaultLimit
			}
			if limit <= 0 {
				return next(c)
			}

			id := key.KeyID
			if id == "" {
				id = key.AccountID
			}
			decision, err := config.Limiter.Allow(c.Request().Context(), id, limit, config.Window)
			if err != nil {
				config.Logger.Warn("Rate limiter unavailable, allowing request",
					zap.String("account_id", key.AccountID),
					zap.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				retry := int(time.Until(decision.ResetAt).Seconds()) + 1
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				return Render(c, domainErrors.NewRateLimitedError(limit))
			}
			return next(c)
		}
	}
}

// Render writes an API key failure in the public error envelope
func Render(c echo.Context, err *domainErrors.APIKeyError) error {
	status := apperrors.ToHTTPStatus(err.Code())
	return c.JSON(status, apperrors.Envelope{Error: err.Message})
}

func renderError(c echo.Context, err error) error {
	var keyErr *domainErrors.APIKeyError
	if errors.As(err, &keyErr) {
		return Render(c, keyErr)
	}
	status, body := apperrors.ToEnvelope(err)
	return c.JSON(status, body)
}
