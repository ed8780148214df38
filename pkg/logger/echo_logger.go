package logger

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	apperrors "github.com/wekeepgrowing/mailshield/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 요청 로그에서 값이 가려지는 헤더
var maskedHeaders = map[string]bool{
	"Authorization": true,
	"X-Api-Key":     true,
}

// NewEchoRequestLogger는 zap 으로 HTTP 요청과 응답을 기록하는 미들웨어를 생성합니다.
func NewEchoRequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		HandleError:     true,
		LogLatency:      true,
		LogRemoteIP:     true,
		LogMethod:       true,
		LogURI:          true,
		LogRoutePath:    true,
		LogRequestID:    true,
		LogUserAgent:    true,
		LogStatus:       true,
		LogError:        true,
		LogResponseSize: true,
		LogHeaders:      []string{"Authorization", "X-Api-Key", "Origin"},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request.remote_ip", v.RemoteIP),
				zap.String("request.method", v.Method),
				zap.String("request.uri", v.URI),
				zap.String("request.route", v.RoutePath),
				zap.String("request.user_agent", v.UserAgent),
				zap.String("request.request_id", v.RequestID),
				zap.Int("response.status", v.Status),
				zap.Duration("response.latency", v.Latency),
				zap.Int64("response.size", v.ResponseSize),
			}
			if len(v.Headers) > 0 {
				headers := make(map[string]string, len(v.Headers))
				for k, values := range v.Headers {
					if len(values) == 0 {
						continue
					}
					if maskedHeaders[http.CanonicalHeaderKey(k)] {
						headers[k] = MaskSecret(values[0])
					} else {
						headers[k] = values[0]
					}
				}
				fields = append(fields, zap.Any("request.headers", headers))
			}

			switch {
			case v.Error != nil:
				logger.Error("Request failed", append(fields, zap.Error(v.Error))...)
			case v.Status >= 500:
				logger.Error("Server error", fields...)
			case v.Status >= 400:
				logger.Warn("Client error", fields...)
			default:
				logger.Info("Request completed", fields...)
			}
			return nil
		},
	})
}

// MaskSecret은 토큰 앞뒤 일부만 남기고 가립니다. 짧은 값은 전부 가립니다.
func MaskSecret(value string) string {
	scheme := ""
	if i := strings.IndexByte(value, ' '); i > 0 {
		scheme, value = value[:i+1], value[i+1:]
	}
	if len(value) <= 12 {
		return scheme + "[MASKED]"
	}
	return scheme + value[:6] + "..." + value[len(value)-4:]
}

// WithEchoLogger는 Echo 의 내장 로거와 에러 핸들러를 zap 기반으로 교체합니다.
// 처리되지 않은 에러는 공통 에러 본문({"error": ...})으로 응답합니다.
func WithEchoLogger(e *echo.Echo, logger *zap.Logger) {
	e.Logger = NewEchoZapLogger(logger)

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		status, body := apperrors.ToEnvelope(err)
		if status >= http.StatusInternalServerError {
			apperrors.LogError(logger, err, "HTTP error",
				zap.Int("status", status),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
			)
		}

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("Failed to send error response", zap.Error(err))
		}
	}
}

// EchoZapLogger는 echo.Logger 인터페이스를 zap 으로 구현합니다.
type EchoZapLogger struct {
	root   *zap.Logger
	base   *zap.Logger
	sugar  *zap.SugaredLogger
	lvl    log.Lvl
	prefix string
}

// NewEchoZapLogger는 Echo 의 Logger 인터페이스를 구현한 zap 로거 래퍼를 생성합니다.
func NewEchoZapLogger(logger *zap.Logger) *EchoZapLogger {
	l := &EchoZapLogger{root: logger, base: logger, sugar: logger.Sugar(), lvl: log.OFF}
	for _, lvl := range []log.Lvl{log.DEBUG, log.INFO, log.WARN, log.ERROR} {
		if logger.Core().Enabled(lvlToZap[lvl]) {
			l.lvl = lvl
			break
		}
	}
	return l
}

var lvlToZap = map[log.Lvl]zapcore.Level{
	log.DEBUG: zapcore.DebugLevel,
	log.INFO:  zapcore.InfoLevel,
	log.WARN:  zapcore.WarnLevel,
	log.ERROR: zapcore.ErrorLevel,
	log.OFF:   zapcore.FatalLevel,
}

func (l *EchoZapLogger) Output() io.Writer { return &zapWriter{logger: l.base} }
func (l *EchoZapLogger) SetOutput(io.Writer) {}
func (l *EchoZapLogger) SetHeader(string) {}
func (l *EchoZapLogger) Prefix() string { return l.prefix }
func (l *EchoZapLogger) SetPrefix(p string) { l.prefix = p }
func (l *EchoZapLogger) Level() log.Lvl { return l.lvl }

// SetLevel은 gommon 레벨을 zap 레벨로 바꿔 적용합니다.
// 원본 코어보다 낮은 레벨은 올릴 수 없으므로 원본 레벨을 유지합니다.
func (l *EchoZapLogger) SetLevel(v log.Lvl) {
	zl, ok := lvlToZap[v]
	if !ok {
		return
	}
	l.lvl = v
	if l.root.Core().Enabled(zl) {
		l.base = l.root.WithOptions(zap.IncreaseLevel(zl))
	} else {
		l.base = l.root
	}
	l.sugar = l.base.Sugar()
}

func (l *EchoZapLogger) Print(i ...interface{}) { l.sugar.Info(i...) }
func (l *EchoZapLogger) Printf(format string, i ...interface{}) { l.sugar.Infof(format, i...) }
func (l *EchoZapLogger) Printj(j log.JSON) { l.base.Info("echo", zap.Any("json", j)) }
func (l *EchoZapLogger) Debug(i ...interface{}) { l.sugar.Debug(i...) }
func (l *EchoZapLogger) Debugf(format string, i ...interface{}) { l.sugar.Debugf(format, i...) }
func (l *EchoZapLogger) Debugj(j log.JSON) { l.base.Debug("echo", zap.Any("json", j)) }
func (l *EchoZapLogger) Info(i ...interface{}) { l.sugar.Info(i...) }
func (l *EchoZapLogger) Infof(format string, i ...interface{}) { l.sugar.Infof(format, i...) }
func (l *EchoZapLogger) Infoj(j log.JSON) { l.base.Info("echo", zap.Any("json", j)) }
func (l *EchoZapLogger) Warn(i ...interface{}) { l.sugar.Warn(i...) }
func (l *EchoZapLogger) Warnf(format string, i ...interface{}) { l.sugar.Warnf(format, i...) }
func (l *EchoZapLogger) Warnj(j log.JSON) { l.base.Warn("echo", zap.Any("json", j)) }
func (l *EchoZapLogger) Error(i ...interface{}) { l.sugar.Error(i...) }
func (l *EchoZapLogger) Errorf(format string, i ...interface{}) { l.sugar.Errorf(format, i...) }
func (l *EchoZapLogger) Errorj(j log.JSON) { l.base.Error("echo", zap.Any("json", j)) }
func (l *EchoZapLogger) Fatal(i ...interface{}) { l.sugar.Fatal(i...) }
func (l *EchoZapLogger) Fatalf(format string, i ...interface{}) { l.sugar.Fatalf(format, i...) }
func (l *EchoZapLogger) Fatalj(j log.JSON) { l.base.Fatal("echo", zap.Any("json", j)) }
func (l *EchoZapLogger) Panic(i ...interface{}) { l.sugar.Panic(i...) }
func (l *EchoZapLogger) Panicf(format string, i ...interface{}) { l.sugar.Panicf(format, i...) }
func (l *EchoZapLogger) Panicj(j log.JSON) { l.base.Panic("echo", zap.Any("json", j)) }

type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Write(p []byte) (int, error) {
	w.logger.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
